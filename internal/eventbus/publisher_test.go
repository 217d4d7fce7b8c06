package eventbus

import (
	"context"
	"encoding/binary"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
)

// loadedChunk возвращает данные чанка (0,0,0) с одним светящимся блоком
func loadedChunk(t *testing.T) *world.ChunkData {
	t.Helper()
	m := world.NewChunkMap(world.FlatGenerator{Height: 0, Block: block.StoneBlockID}, world.DefaultReach, 1)
	_, ok := m.Apply(vec.New(3, 4, 5), world.Place(block.GlowstoneBlockID))
	require.True(t, ok)

	data, ok := m.ChunkData(vec.New(0, 0, 0))
	require.True(t, ok)
	return data
}

func TestSnapshotRoundTrip(t *testing.T) {
	data := loadedChunk(t)

	payload, err := EncodeSnapshot(data)
	require.NoError(t, err)
	assert.Less(t, len(payload), snapshotSize)

	snap, err := DecodeSnapshot(payload)
	require.NoError(t, err)

	assert.Equal(t, data.Coords, snap.Coords)
	assert.Equal(t, data.Chunk.Fingerprint(), snap.Chunk().Fingerprint())
	assert.Equal(t, block.GlowstoneBlockID, snap.Blocks[3<<(2*vec.ChunkBits)|4<<vec.ChunkBits|5])
	for i := range world.ChunkVolume {
		require.Equal(t, data.Light.At(snapshotLocal(i)), snap.Light[i], "ячейка %v", snapshotLocal(i))
	}
}

func TestSnapshotNegativeCoordsAndDefaultLight(t *testing.T) {
	data := &world.ChunkData{Coords: vec.New(-3, 7, -1), Chunk: world.NewChunk()}

	payload, err := EncodeSnapshot(data)
	require.NoError(t, err)
	snap, err := DecodeSnapshot(payload)
	require.NoError(t, err)

	assert.Equal(t, vec.New(-3, 7, -1), snap.Coords)
	assert.Equal(t, light.DefaultLight, snap.Light[0])
	assert.True(t, snap.Chunk().IsEmpty())
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte("not a snapshot"))
	assert.ErrorIs(t, err, ErrBadSnapshot)

	_, err = EncodeSnapshot(nil)
	assert.ErrorIs(t, err, ErrBadSnapshot)
}

func TestDecodeSnapshotRejectsUnknownBlock(t *testing.T) {
	payload, err := EncodeSnapshot(loadedChunk(t))
	require.NoError(t, err)
	raw, err := decoder.DecodeAll(payload, nil)
	require.NoError(t, err)

	binary.LittleEndian.PutUint16(raw[snapshotHeader+2*7:], 0xFFFF)
	_, err = DecodeSnapshot(encoder.EncodeAll(raw, nil))
	assert.ErrorIs(t, err, ErrBadSnapshot)
}

func TestPublisherEnvelopes(t *testing.T) {
	p := NewWorldPublisher(NewMemoryBus(1))
	data := loadedChunk(t)

	env, err := p.Envelope(world.ChunkUpdated{Coords: data.Coords, Data: data})
	require.NoError(t, err)
	assert.Equal(t, "ChunkUpdated", env.EventType)
	assert.Equal(t, WorldSource, env.Source)
	assert.Equal(t, priorityUpdate, env.Priority)
	assert.Equal(t, data.Coords.String(), env.Metadata[MetaCoords])
	assert.Equal(t, strconv.FormatUint(data.Chunk.Fingerprint(), 16), env.Metadata[MetaFingerprint])
	assert.NotEmpty(t, env.Payload)

	env, err = p.Envelope(world.ChunkUnloaded{Coords: vec.New(1, 2, 3)})
	require.NoError(t, err)
	assert.Equal(t, "ChunkUnloaded", env.EventType)
	assert.Empty(t, env.Payload)
	assert.Equal(t, vec.New(1, 2, 3).String(), env.Metadata[MetaCoords])

	env, err = p.Envelope(world.BlockHovered{})
	require.NoError(t, err)
	assert.Equal(t, priorityHover, env.Priority)
	_, hasCoords := env.Metadata[MetaCoords]
	assert.False(t, hasCoords)
}

func TestPublisherRunPublishesToBus(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	received := make(chan *Envelope, 4)
	_, err := bus.Subscribe(context.Background(), Filter{Sources: []string{WorldSource}}, func(ctx context.Context, ev *Envelope) {
		received <- ev
	})
	require.NoError(t, err)

	data := loadedChunk(t)
	events := make(chan world.ServerEvent, 2)
	events <- world.ChunkLoaded{Coords: data.Coords, Data: data}
	events <- world.ChunkUnloaded{Coords: data.Coords}
	close(events)

	p := NewWorldPublisher(bus)
	require.NoError(t, p.Run(context.Background(), events))
	assert.EqualValues(t, 2, p.Published())

	var types []string
	for range 2 {
		select {
		case ev := <-received:
			types = append(types, ev.EventType)
		case <-time.After(2 * time.Second):
			t.Fatal("конверты не доставлены")
		}
	}
	assert.Equal(t, []string{"ChunkLoaded", "ChunkUnloaded"}, types)
}
