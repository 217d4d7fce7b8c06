package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkSplit(t *testing.T) {
	cases := []struct {
		world, chunk, local Vec3
	}{
		{New(0, 0, 0), New(0, 0, 0), New(0, 0, 0)},
		{New(15, 16, 17), New(0, 1, 1), New(15, 0, 1)},
		{New(-1, -16, -17), New(-1, -1, -2), New(15, 0, 15)},
	}

	for _, c := range cases {
		assert.Equal(t, c.chunk, c.world.ToChunkCoords(), "координаты чанка для %v", c.world)
		assert.Equal(t, c.local, c.world.LocalInChunk(), "локальные координаты для %v", c.world)
		assert.Equal(t, c.world, c.chunk.ChunkOrigin().Add(c.local), "обратное преобразование для %v", c.world)
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, -1, FloorDiv(-1, 16))
	assert.Equal(t, -2, FloorDiv(-17, 16))
	assert.Equal(t, 1, FloorDiv(16, 16))
	assert.Equal(t, 0, FloorDiv(15, 16))
}

func TestAxisAccess(t *testing.T) {
	v := New(1, 2, 3)
	assert.Equal(t, 2, v.Get(1))
	assert.Equal(t, New(1, 7, 3), v.With(1, 7))
	assert.Panics(t, func() { v.Get(3) }, "неверная ось должна паниковать")
	assert.Equal(t, 6, v.ManhattanTo(Zero))
	assert.True(t, New(0, 5, 5).Less(New(1, 0, 0)))
}
