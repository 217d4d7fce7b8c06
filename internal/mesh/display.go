package mesh

import (
	"sort"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/atomic"
)

type displayed struct {
	mesh      Mesh
	timestamp uint64
}

// unloadMark метка выгрузки: результаты с меткой времени не больше at
// построены по старому снимку и не применяются
type unloadMark struct {
	at       uint64
	reloaded bool
}

// DisplayStats счётчики потребителя мешей
type DisplayStats struct {
	Meshes    int
	Applied   uint64
	Stale     uint64 // результаты старше показанного меша
	Discarded uint64 // результаты для выгруженных чанков
}

// Display потребитель исходящих событий мира: отправляет чанки в пул
// и раз в кадр применяет готовые меши. Используется из одной горутины.
type Display struct {
	pool     *WorkerPool
	clock    atomic.Uint64
	meshes   map[vec.Vec3]displayed
	unloaded map[vec.Vec3]unloadMark

	applied   atomic.Uint64
	stale     atomic.Uint64
	discarded atomic.Uint64
}

// NewDisplay создаёт потребителя поверх пула
func NewDisplay(pool *WorkerPool) *Display {
	return &Display{
		pool:     pool,
		meshes:   make(map[vec.Vec3]displayed),
		unloaded: make(map[vec.Vec3]unloadMark),
	}
}

// Handle обрабатывает исходящее событие мира
func (d *Display) Handle(event world.ServerEvent) error {
	switch e := event.(type) {
	case world.ChunkLoaded:
		if mark, ok := d.unloaded[e.Coords]; ok {
			mark.reloaded = true
			d.unloaded[e.Coords] = mark
		}
		return d.submit(e.Coords, e.Data, false)
	case world.ChunkUpdated:
		return d.submit(e.Coords, e.Data, true)
	case world.ChunkUnloaded:
		delete(d.meshes, e.Coords)
		d.unloaded[e.Coords] = unloadMark{at: d.clock.Load()}
	}
	return nil
}

func (d *Display) submit(coords vec.Vec3, data *world.ChunkData, priority bool) error {
	return d.pool.Submit(Job{
		Coords:    coords,
		Data:      data,
		Timestamp: d.clock.Inc(),
		Priority:  priority,
	})
}

// Frame применяет готовые результаты пула. Возвращает число заменённых мешей.
func (d *Display) Frame() int {
	return d.Apply(d.pool.Drain()...)
}

// Apply применяет результаты: меш заменяется только более новым результатом.
// Пока чанк выгружен, его результаты отбрасываются; после повторной загрузки
// отбрасываются результаты заданий, отправленных до выгрузки.
func (d *Display) Apply(results ...Result) int {
	applied := 0
	for _, r := range results {
		if mark, ok := d.unloaded[r.Coords]; ok {
			if !mark.reloaded || r.Timestamp <= mark.at {
				d.discarded.Inc()
				continue
			}
			delete(d.unloaded, r.Coords)
		}
		current, ok := d.meshes[r.Coords]
		if ok && r.Timestamp <= current.timestamp {
			d.stale.Inc()
			continue
		}
		d.meshes[r.Coords] = displayed{mesh: r.Mesh, timestamp: r.Timestamp}
		d.applied.Inc()
		applied++
	}
	return applied
}

// Mesh возвращает показанный меш чанка
func (d *Display) Mesh(coords vec.Vec3) (Mesh, bool) {
	m, ok := d.meshes[coords]
	return m.mesh, ok
}

// Timestamp метка времени показанного меша
func (d *Display) Timestamp(coords vec.Vec3) (uint64, bool) {
	m, ok := d.meshes[coords]
	return m.timestamp, ok
}

// TransparentOrder чанки с прозрачными гранями от дальнего к ближнему
func (d *Display) TransparentOrder(eye mgl32.Vec3) []vec.Vec3 {
	var order []vec.Vec3
	for coords, m := range d.meshes {
		if len(m.mesh.Transparent) > 0 {
			order = append(order, coords)
		}
	}
	distance := func(coords vec.Vec3) float32 {
		center := mgl32.Vec3{
			(float32(coords.X) + 0.5) * vec.ChunkDim,
			(float32(coords.Y) + 0.5) * vec.ChunkDim,
			(float32(coords.Z) + 0.5) * vec.ChunkDim,
		}
		return center.Sub(eye).LenSqr()
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := distance(order[i]), distance(order[j])
		if di != dj {
			return di > dj
		}
		return order[i].Less(order[j])
	})
	return order
}

// Stats возвращает счётчики
func (d *Display) Stats() DisplayStats {
	return DisplayStats{
		Meshes:    len(d.meshes),
		Applied:   d.applied.Load(),
		Stale:     d.stale.Load(),
		Discarded: d.discarded.Load(),
	}
}
