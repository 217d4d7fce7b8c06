package world

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWorld(t *testing.T, opts Options) (*WorldManager, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	wm := NewWorldManager(opts)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = wm.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return wm, ctx
}

func nextEvent(t *testing.T, wm *WorldManager) ServerEvent {
	t.Helper()
	select {
	case event := <-wm.Updates():
		return event
	case <-time.After(5 * time.Second):
		require.FailNow(t, "нет исходящего события")
		return nil
	}
}

func expectEvent[T ServerEvent](t *testing.T, wm *WorldManager) T {
	t.Helper()
	event := nextEvent(t, wm)
	typed, ok := event.(T)
	require.True(t, ok, "ожидалось %T, получено %T", *new(T), event)
	return typed
}

func assertNoEvents(t *testing.T, wm *WorldManager) {
	t.Helper()
	reply := make(chan Stats, 1)
	require.NoError(t, wm.Send(context.Background(), StatsRequested{Reply: reply}))
	<-reply
	select {
	case event := <-wm.Updates():
		assert.Failf(t, "лишнее событие", "%T", event)
	default:
	}
}

// В чанке (0,0,0) только камень (9,8,8); остальной мир пуст
func scenarioGenerator() Generator {
	return GeneratorFunc(func(coords vec.Vec3) *Chunk {
		chunk := NewChunk()
		if coords == vec.Zero {
			chunk.Set(vec.New(9, 8, 8), block.StoneBlockID)
		}
		return chunk
	})
}

func TestGlowstonePlaceDestroyScenario(t *testing.T) {
	wm, ctx := startWorld(t, Options{Generator: scenarioGenerator(), Parallelism: 1})

	require.NoError(t, wm.Send(ctx, InitialRenderRequested{
		Position:     mgl32.Vec3{2.5, 8.5, 8.5},
		Direction:    mgl32.Vec3{1, 0, 0},
		RenderRadius: 0,
	}))
	hovered := expectEvent[BlockHovered](t, wm)
	require.NotNil(t, hovered.Coords)
	assert.Equal(t, vec.New(9, 8, 8), *hovered.Coords)
	assert.Equal(t, vec.New(-1, 0, 0), hovered.Normal)

	loaded := expectEvent[ChunkLoaded](t, wm)
	assert.Equal(t, vec.Zero, loaded.Coords)
	before := loaded.Data

	require.NoError(t, wm.Send(ctx, BlockPlaced{Block: block.GlowstoneBlockID}))
	hovered = expectEvent[BlockHovered](t, wm)
	require.NotNil(t, hovered.Coords)
	assert.Equal(t, vec.New(8, 8, 8), *hovered.Coords, "прицел переходит на светящийся камень")

	updated := expectEvent[ChunkUpdated](t, wm)
	assert.Equal(t, vec.Zero, updated.Coords)
	assert.Equal(t, block.GlowstoneBlockID, updated.Data.Chunk.Get(vec.New(8, 8, 8)))

	lit := updated.Data.Light
	for ch := light.SkylightChannels; ch < light.ChannelCount; ch++ {
		assert.Equal(t, uint8(15), lit.At(vec.New(8, 8, 8)).Component(ch))
		prev := uint8(15)
		for d := 1; d <= 8; d++ {
			value := lit.At(vec.New(8-d, 8, 8)).Component(ch)
			assert.Less(t, value, prev, "свет убывает от источника, канал %d, шаг %d", ch, d)
			assert.Equal(t, uint8(15-d), value)
			prev = value
		}
		assert.Equal(t, uint8(14), lit.At(vec.New(8, 9, 8)).Component(ch))
		assert.Equal(t, uint8(12), lit.At(vec.New(8, 5, 8)).Component(ch))
	}
	assertNoEvents(t, wm)

	require.NoError(t, wm.Send(ctx, BlockDestroyed{}))
	hovered = expectEvent[BlockHovered](t, wm)
	require.NotNil(t, hovered.Coords)
	assert.Equal(t, vec.New(9, 8, 8), *hovered.Coords)

	restored := expectEvent[ChunkUpdated](t, wm)
	assert.Equal(t, before.Light, restored.Data.Light, "свет совпадает со снимком до установки")
	assert.Equal(t, before.Chunk.Fingerprint(), restored.Data.Chunk.Fingerprint())
	assertNoEvents(t, wm)
}

func TestRejectedEditEmitsNothing(t *testing.T) {
	wm, ctx := startWorld(t, Options{Generator: scenarioGenerator(), Parallelism: 1})

	// Нет прицела: правки игнорируются
	require.NoError(t, wm.Send(ctx, BlockDestroyed{}))
	require.NoError(t, wm.Send(ctx, InitialRenderRequested{
		Position:  mgl32.Vec3{2.5, 8.5, 8.5},
		Direction: mgl32.Vec3{0, 1, 0},
	}))
	expectEvent[ChunkLoaded](t, wm)
	require.NoError(t, wm.Send(ctx, BlockPlaced{Block: block.SandBlockID}))
	assertNoEvents(t, wm)

	reply := make(chan Stats, 1)
	require.NoError(t, wm.Send(ctx, StatsRequested{Reply: reply}))
	stats := <-reply
	assert.Zero(t, stats.Actions)
	assert.Nil(t, stats.Hovered)
	assert.Equal(t, 1, stats.LoadedChunks)
}

func TestMovementLoadsAndUnloads(t *testing.T) {
	slab := GeneratorFunc(func(coords vec.Vec3) *Chunk {
		if coords.Y != 0 {
			return NewChunk()
		}
		return FlatGenerator{Height: 1, Block: block.StoneBlockID}.Generate(coords)
	})
	wm, ctx := startWorld(t, Options{Generator: slab, Parallelism: 2})

	require.NoError(t, wm.Send(ctx, InitialRenderRequested{
		Position:     mgl32.Vec3{8, 8, 8},
		Direction:    mgl32.Vec3{0, 1, 0},
		RenderRadius: 1,
	}))
	// Плоский мир: непусты только чанки y = 0 в круге радиуса 1
	initial := make(map[vec.Vec3]bool)
	for i := 0; i < 5; i++ {
		initial[expectEvent[ChunkLoaded](t, wm).Coords] = true
	}
	assert.True(t, initial[vec.Zero])
	assertNoEvents(t, wm)

	require.NoError(t, wm.Send(ctx, PlayerPositionChanged{Position: mgl32.Vec3{24, 8, 8}}))
	for _, coords := range []vec.Vec3{vec.New(-1, 0, 0), vec.New(0, 0, -1), vec.New(0, 0, 1)} {
		assert.Equal(t, coords, expectEvent[ChunkUnloaded](t, wm).Coords)
	}
	newly := make(map[vec.Vec3]bool)
	for i := 0; i < 3; i++ {
		newly[expectEvent[ChunkLoaded](t, wm).Coords] = true
	}
	assert.Equal(t, map[vec.Vec3]bool{vec.New(2, 0, 0): true, vec.New(1, 0, -1): true, vec.New(1, 0, 1): true}, newly)

	// Соседи изменившихся чанков получают обновлённый граничный слой
	reply := make(chan Stats, 1)
	require.NoError(t, wm.Send(ctx, StatsRequested{Reply: reply}))
	<-reply
	outline := make(map[vec.Vec3]bool)
	for len(wm.Updates()) > 0 {
		updated := expectEvent[ChunkUpdated](t, wm)
		outline[updated.Coords] = true
	}
	assert.Equal(t, map[vec.Vec3]bool{vec.Zero: true, vec.New(1, 0, 0): true}, outline)
}

func TestTickUpdatesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	wm, ctx := startWorld(t, Options{Generator: FlatGenerator{Height: 1, Block: block.DirtBlockID}, Metrics: metrics})

	require.NoError(t, wm.Send(ctx, InitialRenderRequested{Position: mgl32.Vec3{0, 4, 0}, Direction: mgl32.Vec3{0, -1, 0}}))
	expectEvent[BlockHovered](t, wm)
	expectEvent[ChunkLoaded](t, wm)
	require.NoError(t, wm.Send(ctx, Tick{}))
	require.NoError(t, wm.Send(ctx, Tick{}))

	reply := make(chan Stats, 1)
	require.NoError(t, wm.Send(ctx, StatsRequested{Reply: reply}))
	stats := <-reply
	assert.Equal(t, uint64(2), stats.Ticks)
	require.NotNil(t, stats.Hovered)
	assert.Equal(t, vec.New(0, 0, 0), *stats.Hovered)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.loadedChunks))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.events.WithLabelValues("Tick")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.outbound.WithLabelValues("ChunkLoaded")))
}
