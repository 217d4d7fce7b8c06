package mesh

import (
	"testing"
	"time"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meshOf(n int) Mesh {
	return Mesh{Opaque: make([]Vertex, n)}
}

func TestDisplayNewestTimestampWins(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()
	d := NewDisplay(pool)
	coords := vec.New(0, 0, 0)

	// t2 пришёл раньше t1
	applied := d.Apply(
		Result{Coords: coords, Mesh: meshOf(2), Timestamp: 2},
		Result{Coords: coords, Mesh: meshOf(1), Timestamp: 1},
	)
	assert.Equal(t, 1, applied)

	m, ok := d.Mesh(coords)
	require.True(t, ok)
	assert.Len(t, m.Opaque, 2, "показан результат t2")
	ts, _ := d.Timestamp(coords)
	assert.Equal(t, uint64(2), ts)
	assert.Equal(t, uint64(1), d.Stats().Stale)

	d.Apply(Result{Coords: coords, Mesh: meshOf(3), Timestamp: 3})
	m, _ = d.Mesh(coords)
	assert.Len(t, m.Opaque, 3)
}

func TestDisplayDiscardsUnloadedChunks(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()
	d := NewDisplay(pool)
	coords := vec.New(1, 0, 0)

	d.Apply(Result{Coords: coords, Mesh: meshOf(1), Timestamp: 1})
	require.NoError(t, d.Handle(world.ChunkUnloaded{Coords: coords}))
	_, ok := d.Mesh(coords)
	assert.False(t, ok, "меш выгруженного чанка удалён")

	assert.Zero(t, d.Apply(Result{Coords: coords, Mesh: meshOf(1), Timestamp: 5}))
	_, ok = d.Mesh(coords)
	assert.False(t, ok, "запоздавший результат отброшен")
	assert.Equal(t, uint64(1), d.Stats().Discarded)
}

func TestDisplayDropsPreUnloadResultsAfterReload(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()
	d := NewDisplay(pool)
	coords := vec.New(2, 0, 0)

	// задание t1 отправлено до выгрузки, его результат ещё в пути
	d.clock.Store(1)
	require.NoError(t, d.Handle(world.ChunkUnloaded{Coords: coords}))
	data := snapshot(coords, map[vec.Vec3]block.BlockID{vec.New(0, 0, 0): block.StoneBlockID})
	require.NoError(t, d.Handle(world.ChunkLoaded{Coords: coords, Data: data}))

	assert.Zero(t, d.Apply(Result{Coords: coords, Mesh: meshOf(7), Timestamp: 1}))
	_, ok := d.Mesh(coords)
	assert.False(t, ok, "результат по старому снимку не показан")
	assert.Equal(t, uint64(1), d.Stats().Discarded)

	assert.Equal(t, 1, d.Apply(Result{Coords: coords, Mesh: meshOf(3), Timestamp: 2}))
	m, ok := d.Mesh(coords)
	require.True(t, ok)
	assert.Len(t, m.Opaque, 3)
	assert.NotContains(t, d.unloaded, coords)
}

func TestDisplayBuildsLoadedChunks(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()
	d := NewDisplay(pool)

	coords := vec.New(0, 0, 0)
	data := snapshot(coords, map[vec.Vec3]block.BlockID{vec.New(0, 0, 0): block.StoneBlockID})
	require.NoError(t, d.Handle(world.ChunkUnloaded{Coords: coords}))
	require.NoError(t, d.Handle(world.ChunkLoaded{Coords: coords, Data: data}))

	require.Eventually(t, func() bool {
		d.Frame()
		_, ok := d.Mesh(coords)
		return ok
	}, 5*time.Second, 5*time.Millisecond, "повторная загрузка снимает отметку выгрузки")

	updated := snapshot(coords, map[vec.Vec3]block.BlockID{
		vec.New(0, 0, 0): block.StoneBlockID,
		vec.New(5, 5, 5): block.StoneBlockID,
	})
	require.NoError(t, d.Handle(world.ChunkUpdated{Coords: coords, Data: updated}))
	require.Eventually(t, func() bool {
		d.Frame()
		m, _ := d.Mesh(coords)
		return len(m.Opaque) == 72
	}, 5*time.Second, 5*time.Millisecond)
}

func TestTransparentOrderBackToFront(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()
	d := NewDisplay(pool)

	glass := Mesh{Transparent: make([]Vertex, 6)}
	d.Apply(
		Result{Coords: vec.New(0, 0, 0), Mesh: glass, Timestamp: 1},
		Result{Coords: vec.New(3, 0, 0), Mesh: glass, Timestamp: 2},
		Result{Coords: vec.New(1, 0, 0), Mesh: glass, Timestamp: 3},
		Result{Coords: vec.New(2, 0, 0), Mesh: meshOf(6), Timestamp: 4},
	)

	order := d.TransparentOrder(mgl32.Vec3{8, 8, 8})
	assert.Equal(t, []vec.Vec3{vec.New(3, 0, 0), vec.New(1, 0, 0), vec.New(0, 0, 0)}, order)
}
