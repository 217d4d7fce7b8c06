package world

import (
	"sort"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/area"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

// ChunkData снимок чанка для построения меша. Принадлежит получателю.
type ChunkData struct {
	Coords vec.Vec3
	Chunk  *Chunk
	Area   *area.ChunkArea
	Light  *area.ChunkAreaLight
}

// EditResult итог успешной правки блока
type EditResult struct {
	Loaded   bool       // правка создала чанк
	Unloaded bool       // чанк опустел и удалён
	Changed  []vec.Vec3 // позиция правки и позиции с изменённым светом
}

// ChunkMap хранилище загруженных чанков со счётчиками ссылок,
// журналом правок и движком освещения. Принадлежит горутине симуляции.
type ChunkMap struct {
	chunks      map[vec.Vec3]*ChunkCell
	actions     *ActionStore
	light       *light.Engine
	generator   Generator
	parallelism int
	reach       Reach
	hover       *BlockIntersection
}

// DefaultParallelism число логических ядер, не меньше 1
func DefaultParallelism() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		logging.Warn("Не удалось определить число ядер: %v", err)
		return 1
	}
	return n
}

// NewChunkMap создаёт пустую карту чанков
func NewChunkMap(generator Generator, reach Reach, parallelism int) *ChunkMap {
	if parallelism <= 0 {
		parallelism = DefaultParallelism()
	}
	m := &ChunkMap{
		chunks:      make(map[vec.Vec3]*ChunkCell),
		actions:     NewActionStore(),
		generator:   generator,
		parallelism: parallelism,
		reach:       reach,
	}
	m.light = light.NewEngine(m, Bounds)
	return m
}

// Block возвращает блок по мировым координатам; отсутствующий чанк читается как воздух
func (m *ChunkMap) Block(pos vec.Vec3) block.BlockID {
	cell, ok := m.chunks[pos.ToChunkCoords()]
	if !ok {
		return block.AirBlockID
	}
	return cell.Chunk.Get(pos.LocalInChunk())
}

// Light возвращает свет по мировым координатам
func (m *ChunkMap) Light(pos vec.Vec3) light.BlockLight {
	return m.light.Light(pos)
}

// Cell возвращает ячейку чанка
func (m *ChunkMap) Cell(coords vec.Vec3) (*ChunkCell, bool) {
	cell, ok := m.chunks[coords]
	return cell, ok
}

// Len число загруженных чанков
func (m *ChunkMap) Len() int {
	return len(m.chunks)
}

// Actions журнал правок
func (m *ChunkMap) Actions() *ActionStore {
	return m.actions
}

// LightEngine движок освещения
func (m *ChunkMap) LightEngine() *light.Engine {
	return m.light
}

// generate создаёт содержимое чанка: генератор плюс журнал правок
func (m *ChunkMap) generate(coords vec.Vec3) *Chunk {
	chunk := m.generator.Generate(coords)
	m.actions.Replay(coords, chunk)
	return chunk
}

// LoadMany увеличивает счётчики присутствующих чанков и генерирует отсутствующие.
// Пустые сгенерированные чанки не вставляются. Возвращает присутствующие после
// загрузки координаты (в порядке запроса) и позиции с изменённым светом.
func (m *ChunkMap) LoadMany(points []vec.Vec3) (present []vec.Vec3, lightChanged []vec.Vec3) {
	var missing []vec.Vec3
	requested := make(map[vec.Vec3]int)
	for _, coords := range points {
		if !InBounds(coords) {
			continue
		}
		if cell, ok := m.chunks[coords]; ok {
			cell.Loads++
			continue
		}
		if requested[coords] == 0 {
			missing = append(missing, coords)
		}
		requested[coords]++
	}

	// Генерация чистая, поэтому идёт параллельно; вставка последовательная
	generated := make([]*Chunk, len(missing))
	var g errgroup.Group
	g.SetLimit(m.parallelism)
	for i, coords := range missing {
		g.Go(func() error {
			generated[i] = m.generate(coords)
			return nil
		})
	}
	_ = g.Wait()

	var inserted []vec.Vec3
	for i, coords := range missing {
		chunk := generated[i]
		if chunk.IsEmpty() {
			continue
		}
		m.chunks[coords] = &ChunkCell{Chunk: chunk, Loads: requested[coords]}
		inserted = append(inserted, coords)
	}

	changed := make(map[vec.Vec3]struct{})
	for _, coords := range inserted {
		for _, pos := range m.light.Insert(coords) {
			changed[pos] = struct{}{}
		}
	}

	seen := make(map[vec.Vec3]struct{})
	for _, coords := range points {
		if _, dup := seen[coords]; dup {
			continue
		}
		seen[coords] = struct{}{}
		if _, ok := m.chunks[coords]; ok {
			present = append(present, coords)
		}
	}

	if len(missing) > 0 {
		logging.Debug("Сгенерировано чанков: %d, вставлено: %d", len(missing), len(inserted))
	}
	return present, sortedPositions(changed)
}

// UnloadMany уменьшает счётчики и удаляет чанки, чей счётчик дошёл до нуля.
// Правки удалённых чанков остаются в журнале и восстанавливаются при следующей загрузке.
// Сетки света удалённых чанков сохраняются, если отличаются от света по умолчанию.
func (m *ChunkMap) UnloadMany(points []vec.Vec3) []vec.Vec3 {
	var removed []vec.Vec3
	for _, coords := range points {
		cell, ok := m.chunks[coords]
		if !ok {
			continue
		}
		cell.Loads--
		if cell.Loads <= 0 {
			delete(m.chunks, coords)
			removed = append(removed, coords)
		}
	}
	m.light.Drop(removed...)
	return removed
}

// Apply применяет правку к блоку в мировых координатах.
// Возвращает false, если правка отклонена: высота вне мира,
// установка в занятую ячейку или разрушение воздуха.
func (m *ChunkMap) Apply(pos vec.Vec3, action BlockAction) (EditResult, bool) {
	coords := pos.ToChunkCoords()
	if !InBounds(coords) {
		return EditResult{}, false
	}

	cell, present := m.chunks[coords]
	var chunk *Chunk
	if present {
		chunk = cell.Chunk
	} else {
		chunk = m.generate(coords)
	}
	if !chunk.Apply(pos.LocalInChunk(), action) {
		return EditResult{}, false
	}
	m.actions.Insert(pos, action)

	var result EditResult
	changed := map[vec.Vec3]struct{}{pos: {}}
	switch {
	case present && chunk.IsEmpty():
		delete(m.chunks, coords)
		result.Unloaded = true
	case !present && !chunk.IsEmpty():
		m.chunks[coords] = &ChunkCell{Chunk: chunk, Loads: 1}
		result.Loaded = true
		for _, p := range m.light.Insert(coords) {
			changed[p] = struct{}{}
		}
	}

	var lightChanged []vec.Vec3
	if action.Kind == ActionPlace {
		lightChanged = m.light.Place(pos, action.Block)
	} else {
		lightChanged = m.light.Destroy(pos)
	}
	for _, p := range lightChanged {
		changed[p] = struct{}{}
	}
	if result.Unloaded {
		m.light.Drop(coords)
	}
	result.Changed = sortedPositions(changed)
	return result, true
}

// UpdatedChunks возвращает загруженные чанки, чьи окна соседей задевают
// изменённые позиции, за исключением exclude
func (m *ChunkMap) UpdatedChunks(changed []vec.Vec3, exclude ...vec.Vec3) []vec.Vec3 {
	skip := make(map[vec.Vec3]struct{}, len(exclude))
	for _, coords := range exclude {
		skip[coords] = struct{}{}
	}

	set := make(map[vec.Vec3]struct{})
	for _, pos := range changed {
		area.ForEachDelta(func(delta vec.Vec3) {
			coords := pos.Add(delta).ToChunkCoords()
			if _, ok := skip[coords]; ok {
				return
			}
			if _, ok := m.chunks[coords]; ok {
				set[coords] = struct{}{}
			}
		})
	}
	return sortedPositions(set)
}

// ChunkArea снимок блоков чанка с граничным слоем соседей
func (m *ChunkMap) ChunkArea(coords vec.Vec3) *area.ChunkArea {
	return area.NewChunkArea(coords, m.Block)
}

// ChunkAreaLight снимок света чанка с граничным слоем соседей
func (m *ChunkMap) ChunkAreaLight(coords vec.Vec3) *area.ChunkAreaLight {
	return area.NewChunkAreaLight(coords, m.light.Light)
}

// ChunkData собирает снимок загруженного чанка
func (m *ChunkMap) ChunkData(coords vec.Vec3) (*ChunkData, bool) {
	cell, ok := m.chunks[coords]
	if !ok {
		return nil, false
	}
	return &ChunkData{
		Coords: coords,
		Chunk:  cell.Chunk.Clone(),
		Area:   m.ChunkArea(coords),
		Light:  m.ChunkAreaLight(coords),
	}, true
}

// Hover ищет первый непустой блок вдоль луча. Возвращает true, если результат изменился.
func (m *ChunkMap) Hover(ray Ray) bool {
	var hover *BlockIntersection
	for hit := range ray.Cast(m.reach) {
		if !m.Block(hit.Coords).IsAir() {
			hover = &hit
			break
		}
	}

	switch {
	case hover == nil && m.hover == nil:
		return false
	case hover != nil && m.hover != nil && *hover == *m.hover:
		return false
	}
	m.hover = hover
	return true
}

// Hovered возвращает блок под прицелом
func (m *ChunkMap) Hovered() (BlockIntersection, bool) {
	if m.hover == nil {
		return BlockIntersection{}, false
	}
	return *m.hover, true
}

// Brightness максимальный свет видимых граней блока
func (m *ChunkMap) Brightness(pos vec.Vec3) light.BlockLight {
	blocks := area.NewBlockArea(func(delta vec.Vec3) block.BlockID {
		return m.Block(pos.Add(delta))
	})
	lights := area.NewBlockAreaLight(func(delta vec.Vec3) light.BlockLight {
		return m.light.Light(pos.Add(delta))
	})
	return lights.Brightness(&blocks)
}

func sortedPositions(set map[vec.Vec3]struct{}) []vec.Vec3 {
	positions := make([]vec.Vec3, 0, len(set))
	for pos := range set {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Less(positions[j]) })
	return positions
}
