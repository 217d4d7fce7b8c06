package world

import (
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkApplyPreconditions(t *testing.T) {
	chunk := NewChunk()
	pos := vec.New(3, 4, 5)

	assert.False(t, chunk.Apply(pos, Destroy()), "разрушение воздуха отклоняется")
	assert.True(t, chunk.Apply(pos, Place(block.StoneBlockID)), "установка в воздух проходит")
	assert.False(t, chunk.Apply(pos, Place(block.SandBlockID)), "установка в занятую ячейку отклоняется")
	assert.Equal(t, block.StoneBlockID, chunk.Get(pos))
	assert.False(t, chunk.IsEmpty())

	assert.True(t, chunk.Apply(pos, Destroy()))
	assert.True(t, chunk.IsEmpty(), "после разрушения единственного блока чанк пуст")
}

func TestChunkEditRoundTrip(t *testing.T) {
	chunk := FlatGenerator{Height: 8, Block: block.DirtBlockID}.Generate(vec.Zero)
	before := chunk.Clone()
	pos := vec.New(8, 8, 8)

	require.True(t, chunk.Apply(pos, Place(block.GlowstoneBlockID)))
	assert.True(t, chunk.IsGlowing())
	require.True(t, chunk.Apply(pos, Destroy()))

	assert.Equal(t, before.Blocks(), chunk.Blocks(), "содержимое побитово совпадает")
	assert.Equal(t, before.Fingerprint(), chunk.Fingerprint())
	assert.False(t, chunk.IsGlowing())
}

func TestChunkCountersMatchScan(t *testing.T) {
	chunk := NewChunk()
	chunk.Set(vec.New(0, 0, 0), block.GlowstoneBlockID)
	chunk.Set(vec.New(1, 0, 0), block.StoneBlockID)
	chunk.Set(vec.New(1, 0, 0), block.GlowstoneBlockID)
	chunk.Set(vec.New(0, 0, 0), block.AirBlockID)

	nonAir, glowing := 0, 0
	chunk.ForEach(func(_ vec.Vec3, id block.BlockID) {
		if !id.IsAir() {
			nonAir++
		}
		if id.Data().IsGlowing() {
			glowing++
		}
	})
	assert.Equal(t, nonAir, chunk.BlockCount())
	assert.Equal(t, 1, glowing)
	assert.True(t, chunk.IsGlowing())

	restored := ChunkFromBlocks(chunk.Blocks())
	assert.Equal(t, chunk.BlockCount(), restored.BlockCount())
	assert.Equal(t, chunk.IsGlowing(), restored.IsGlowing())
}

func TestChunkPanicsOutsideBounds(t *testing.T) {
	chunk := NewChunk()
	assert.Panics(t, func() { chunk.Get(vec.New(16, 0, 0)) })
	assert.Panics(t, func() { chunk.Set(vec.New(0, -1, 0), block.StoneBlockID) })
}

func TestActionStoreReplay(t *testing.T) {
	store := NewActionStore()
	store.Insert(vec.New(-1, 2, 3), Place(block.SandBlockID))
	store.Insert(vec.New(-1, 2, 3), Place(block.StoneBlockID))
	store.Insert(vec.New(-2, 0, 0), Destroy())

	assert.Equal(t, 2, store.Len(), "повторная правка заменяет предыдущую")
	assert.Equal(t, 1, store.ChunkCount())

	chunk := FlatGenerator{Height: 1, Block: block.DirtBlockID}.Generate(vec.New(-1, 0, 0))
	store.Replay(vec.New(-1, 0, 0), chunk)

	assert.Equal(t, block.StoneBlockID, chunk.Get(vec.New(15, 2, 3)))
	assert.Equal(t, block.AirBlockID, chunk.Get(vec.New(14, 0, 0)))
	assert.Equal(t, block.DirtBlockID, chunk.Get(vec.New(13, 0, 0)))
}
