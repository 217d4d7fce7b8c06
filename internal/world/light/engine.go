package light

import (
	"math"
	"sort"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
)

// BlockSource отдаёт блок по мировым координатам. Отсутствующие чанки читаются как воздух.
type BlockSource interface {
	Block(pos vec.Vec3) block.BlockID
}

// Bounds вертикальные границы мира в блоках, MaxY не включается
type Bounds struct {
	MinY int
	MaxY int
}

// Contains проверяет, лежит ли высота внутри мира
func (b Bounds) Contains(y int) bool {
	return y >= b.MinY && y < b.MaxY
}

type node struct {
	pos   vec.Vec3
	value uint8
}

// Engine владеет сетками света всех чанков. Не потокобезопасен:
// используется только горутиной симуляции.
type Engine struct {
	blocks BlockSource
	bounds Bounds
	grids  map[vec.Vec3]*ChunkLight

	// исходные значения ячеек, затронутых текущей операцией
	before map[vec.Vec3]BlockLight
}

// NewEngine создаёт движок освещения поверх источника блоков
func NewEngine(blocks BlockSource, bounds Bounds) *Engine {
	return &Engine{
		blocks: blocks,
		bounds: bounds,
		grids:  make(map[vec.Vec3]*ChunkLight),
	}
}

// Light возвращает свет в мировых координатах
func (e *Engine) Light(pos vec.Vec3) BlockLight {
	if !e.bounds.Contains(pos.Y) {
		return DefaultLight
	}
	grid, ok := e.grids[pos.ToChunkCoords()]
	if !ok {
		return DefaultLight
	}
	return grid.Get(pos.LocalInChunk())
}

// Grid возвращает сетку света чанка, если она уже создана
func (e *Engine) Grid(chunk vec.Vec3) (*ChunkLight, bool) {
	grid, ok := e.grids[chunk]
	return grid, ok
}

// GridCount число созданных сеток
func (e *Engine) GridCount() int {
	return len(e.grids)
}

// Drop удаляет сетки перечисленных чанков, совпадающие с DefaultLight.
// Отсутствующая сетка читается так же, поэтому свет мира не меняется.
// Возвращает число удалённых сеток.
func (e *Engine) Drop(chunks ...vec.Vec3) int {
	dropped := 0
	for _, chunk := range chunks {
		if grid, ok := e.grids[chunk]; ok && grid.IsDefault() {
			delete(e.grids, chunk)
			dropped++
		}
	}
	return dropped
}

// Place обновляет свет после установки блока id в pos (блок уже записан в мир).
// Возвращает координаты, чей свет изменился.
func (e *Engine) Place(pos vec.Vec3, id block.BlockID) []vec.Vec3 {
	e.begin()
	data := block.Get(id)
	for ch := 0; ch < ChannelCount; ch++ {
		emission := data.Emission(ch)
		if data.Filter(ch) < 1 {
			// Новый блок гасит свет, прошедший через ячейку
			if current := e.component(pos, ch); current > emission {
				e.setComponent(pos, ch, 0)
				e.retract(ch, pos, current)
			}
		}
		e.raise(ch, pos, emission)
	}
	return e.finish()
}

// Destroy обновляет свет после разрушения блока в pos (в мире уже воздух)
func (e *Engine) Destroy(pos vec.Vec3) []vec.Vec3 {
	e.begin()
	for ch := 0; ch < ChannelCount; ch++ {
		flood := e.flood(ch, pos)
		current := e.component(pos, ch)
		switch {
		case current < flood:
			e.raise(ch, pos, flood)
		case current > flood:
			e.setComponent(pos, ch, 0)
			e.retract(ch, pos, current)
		}
	}
	return e.finish()
}

// Insert согласует свет только что загруженного чанка с его содержимым:
// гасит устаревший свет внутри фильтрующих блоков и распространяет свечение.
func (e *Engine) Insert(chunk vec.Vec3) []vec.Vec3 {
	e.begin()
	_, hasGrid := e.grids[chunk]
	origin := chunk.ChunkOrigin()

	var glowing []vec.Vec3
	for x := 0; x < vec.ChunkDim; x++ {
		for y := 0; y < vec.ChunkDim; y++ {
			for z := 0; z < vec.ChunkDim; z++ {
				pos := origin.Add(vec.New(x, y, z))
				id := e.blocks.Block(pos)
				if id.IsAir() {
					continue
				}
				data := block.Get(id)
				if hasGrid {
					for ch := SkylightChannels; ch < ChannelCount; ch++ {
						if data.Filter(ch) >= 1 {
							continue
						}
						if current := e.component(pos, ch); current > data.Emission(ch) {
							e.setComponent(pos, ch, 0)
							e.retract(ch, pos, current)
						}
					}
				}
				if data.IsGlowing() {
					glowing = append(glowing, pos)
				}
			}
		}
	}

	for ch := SkylightChannels; ch < ChannelCount; ch++ {
		var sources []node
		for _, pos := range glowing {
			emission := block.Get(e.blocks.Block(pos)).Emission(ch)
			if emission > e.component(pos, ch) {
				e.setComponent(pos, ch, emission)
				sources = append(sources, node{pos: pos, value: emission})
			}
		}
		e.spread(ch, sources)
	}
	return e.finish()
}

func (e *Engine) begin() {
	e.before = make(map[vec.Vec3]BlockLight)
}

func (e *Engine) finish() []vec.Vec3 {
	changed := make([]vec.Vec3, 0, len(e.before))
	for pos, old := range e.before {
		if e.Light(pos) != old {
			changed = append(changed, pos)
		}
	}
	e.before = nil
	sort.Slice(changed, func(i, j int) bool { return changed[i].Less(changed[j]) })
	return changed
}

func (e *Engine) data(pos vec.Vec3) *block.Data {
	return block.Get(e.blocks.Block(pos))
}

func (e *Engine) component(pos vec.Vec3, ch int) uint8 {
	return e.Light(pos).Component(ch)
}

func (e *Engine) setComponent(pos vec.Vec3, ch int, value uint8) {
	chunk := pos.ToChunkCoords()
	grid, ok := e.grids[chunk]
	if !ok {
		grid = NewChunkLight()
		e.grids[chunk] = grid
	}
	local := pos.LocalInChunk()
	old := grid.Get(local)
	if _, seen := e.before[pos]; !seen {
		e.before[pos] = old
	}
	grid.Set(local, old.WithComponent(ch, value))
}

// emitted значение, которое ячейка отдаёт соседям. Непрозрачная в канале
// ячейка светит только собственным излучением.
func (e *Engine) emitted(pos vec.Vec3, ch int) uint8 {
	data := e.data(pos)
	if data.Filter(ch) == 0 {
		return data.Emission(ch)
	}
	return e.component(pos, ch)
}

// propagated значение, которое получит ячейка next от соседа со значением value,
// если свет идёт в направлении side
func (e *Engine) propagated(ch int, side block.Side, value uint8, next vec.Vec3) uint8 {
	if value == 0 {
		return 0
	}
	candidate := value - 1
	// Прямой небесный свет опускается вниз без затухания
	if IsSkylight(ch) && value == ComponentMax && side == block.Down {
		candidate = value
	}
	filter := e.data(next).Filter(ch)
	return uint8(math.Round(float64(candidate) * float64(filter)))
}

// flood максимальное значение, которое соседи дают ячейке pos
func (e *Engine) flood(ch int, pos vec.Vec3) uint8 {
	var best uint8
	for side := range block.Side(block.SideCount) {
		neighbor := pos.Add(side.Delta())
		value := e.emitted(neighbor, ch)
		if v := e.propagated(ch, side.Opposite(), value, pos); v > best {
			best = v
		}
	}
	return best
}

func (e *Engine) raise(ch int, pos vec.Vec3, value uint8) {
	if value <= e.component(pos, ch) {
		return
	}
	e.setComponent(pos, ch, value)
	e.spread(ch, []node{{pos: pos, value: value}})
}

// spread обход в ширину, поднимающий соседей до значения с учётом затухания
func (e *Engine) spread(ch int, queue []node) {
	for head := 0; head < len(queue); head++ {
		current := queue[head].pos
		value := e.emitted(current, ch)
		if value == 0 {
			continue
		}
		for side := range block.Side(block.SideCount) {
			next := current.Add(side.Delta())
			if !e.bounds.Contains(next.Y) {
				continue
			}
			candidate := e.propagated(ch, side, value, next)
			if candidate <= e.component(next, ch) {
				continue
			}
			e.setComponent(next, ch, candidate)
			if candidate > 1 {
				queue = append(queue, node{pos: next, value: candidate})
			}
		}
	}
}

// retract гасит свет, пришедший из start со значением value, и
// заново распространяет его от оставшихся источников
func (e *Engine) retract(ch int, start vec.Vec3, value uint8) {
	queue := []node{{pos: start, value: value}}
	var sources []node

	for head := 0; head < len(queue); head++ {
		parent := queue[head]
		for side := range block.Side(block.SideCount) {
			next := parent.pos.Add(side.Delta())
			if !e.bounds.Contains(next.Y) {
				continue
			}
			expected := e.propagated(ch, side, parent.value, next)
			current := e.component(next, ch)

			switch {
			case expected > 0 && current == expected:
				emission := e.data(next).Emission(ch)
				e.setComponent(next, ch, emission)
				if emission > 0 {
					sources = append(sources, node{pos: next, value: emission})
				}
				queue = append(queue, node{pos: next, value: current})
			case current > expected:
				if v := e.emitted(next, ch); v > 0 {
					sources = append(sources, node{pos: next, value: v})
				}
			}
		}
	}

	e.spread(ch, sources)
}
