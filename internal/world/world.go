package world

import (
	"context"
	"sort"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/area"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Options параметры симуляции мира
type Options struct {
	Generator      Generator // по умолчанию WorldGenerator с нулевым сидом
	Reach          Reach     // дальность выделения блока
	Parallelism    int       // горутин генерации, 0 = число ядер
	InboundBuffer  int
	OutboundBuffer int
	Metrics        *Metrics // может быть nil
}

// DefaultReach дальность выделения блока по умолчанию
var DefaultReach = Reach{Min: 0, Max: 8}

// WorldManager единственный владелец карты чанков, света и журнала правок.
// Входящие события обрабатываются строго по порядку в горутине Run.
type WorldManager struct {
	chunks      *ChunkMap
	player      Player
	in          chan ClientEvent
	out         chan ServerEvent
	metrics     *Metrics
	tracer      trace.Tracer
	logger      *logging.Logger
	currentTick uint64
}

// NewWorldManager создаёт менеджер мира
func NewWorldManager(opts Options) *WorldManager {
	if opts.Generator == nil {
		opts.Generator = NewWorldGenerator(0)
	}
	if opts.Reach == (Reach{}) {
		opts.Reach = DefaultReach
	}
	if opts.InboundBuffer <= 0 {
		opts.InboundBuffer = 256
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = 1024
	}
	return &WorldManager{
		chunks:  NewChunkMap(opts.Generator, opts.Reach, opts.Parallelism),
		in:      make(chan ClientEvent, opts.InboundBuffer),
		out:     make(chan ServerEvent, opts.OutboundBuffer),
		metrics: opts.Metrics,
		tracer:  otel.Tracer("github.com/annel0/voxelworld/internal/world"),
		logger:  logging.GetComponentLogger("world"),
	}
}

// Send ставит входящее событие в очередь. Блокируется, пока очередь заполнена.
func (wm *WorldManager) Send(ctx context.Context, event ClientEvent) error {
	select {
	case wm.in <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Updates канал исходящих событий. Закрывается после завершения Run.
func (wm *WorldManager) Updates() <-chan ServerEvent {
	return wm.out
}

// Run обрабатывает входящие события до отмены контекста
func (wm *WorldManager) Run(ctx context.Context) error {
	defer close(wm.out)
	wm.logger.Info("🌍 Симуляция мира запущена")

	for {
		select {
		case <-ctx.Done():
			wm.logger.Info("🛑 Симуляция мира остановлена")
			return ctx.Err()
		case event := <-wm.in:
			if err := wm.handle(ctx, event); err != nil {
				return err
			}
		}
	}
}

// handle обрабатывает одно событие
func (wm *WorldManager) handle(ctx context.Context, event ClientEvent) error {
	started := time.Now()
	ctx, span := wm.tracer.Start(ctx, event.GetType().String())
	defer span.End()

	var err error
	switch e := event.(type) {
	case InitialRenderRequested:
		err = wm.handleInitialRender(ctx, e)
	case PlayerPositionChanged:
		err = wm.handlePositionChanged(ctx, e)
	case PlayerOrientationChanged:
		if wm.player.Spawned() {
			wm.player.Look(e.Direction)
			err = wm.refreshHover(ctx)
		}
	case BlockPlaced:
		if hover, ok := wm.chunks.Hovered(); ok {
			err = wm.applyEdit(ctx, hover.Target(), Place(e.Block))
		}
	case BlockDestroyed:
		if hover, ok := wm.chunks.Hovered(); ok {
			err = wm.applyEdit(ctx, hover.Coords, Destroy())
		}
	case Tick:
		wm.currentTick++
		wm.metrics.observeState(wm.stats())
	case StatsRequested:
		select {
		case e.Reply <- wm.stats():
		default:
			wm.logger.Warn("Ответ на запрос статистики потерян: канал заполнен")
		}
	default:
		wm.logger.Warn("Неизвестный тип события: %T", event)
	}

	span.SetAttributes(attribute.Int("world.loaded_chunks", wm.chunks.Len()))
	wm.metrics.observeEvent(event.GetType(), time.Since(started))
	return err
}

func (wm *WorldManager) handleInitialRender(ctx context.Context, e InitialRenderRequested) error {
	if wm.player.Spawned() {
		// Повторный запрос: освобождаем старую область
		removed := wm.chunks.UnloadMany(wm.player.Curr.Points())
		if err := wm.sendUnloads(ctx, removed); err != nil {
			return err
		}
	}
	wm.player.Spawn(e.Position, e.Direction, e.RenderRadius)
	wm.logger.Debug("Первичная отрисовка: центр %v, радиус %d", wm.player.Curr.Center, e.RenderRadius)

	loaded, lightChanged := wm.loadArea(wm.player.Curr.Points())
	if err := wm.refreshHover(ctx); err != nil {
		return err
	}

	center := wm.player.Curr.Center
	sort.SliceStable(loaded, func(i, j int) bool {
		return loaded[i].DistanceSquared(center) < loaded[j].DistanceSquared(center)
	})
	if err := wm.sendLoads(ctx, loaded); err != nil {
		return err
	}
	return wm.sendUpdates(ctx, wm.chunks.UpdatedChunks(lightChanged, loaded...))
}

func (wm *WorldManager) handlePositionChanged(ctx context.Context, e PlayerPositionChanged) error {
	if !wm.player.Spawned() {
		return nil
	}
	if !wm.player.Move(e.Position) {
		return wm.refreshHover(ctx)
	}

	prev, curr := wm.player.Prev, wm.player.Curr
	unloaded := wm.chunks.UnloadMany(prev.ExclusivePoints(curr))
	loaded, lightChanged := wm.loadArea(curr.ExclusivePoints(prev))

	if err := wm.refreshHover(ctx); err != nil {
		return err
	}
	if err := wm.sendUnloads(ctx, unloaded); err != nil {
		return err
	}
	if err := wm.sendLoads(ctx, loaded); err != nil {
		return err
	}

	changed := append(append([]vec.Vec3{}, loaded...), unloaded...)
	updates := merge(wm.outline(changed), wm.chunks.UpdatedChunks(lightChanged, changed...))
	return wm.sendUpdates(ctx, updates)
}

// loadArea загружает чанки и возвращает только вновь появившиеся
func (wm *WorldManager) loadArea(points []vec.Vec3) ([]vec.Vec3, []vec.Vec3) {
	before := make(map[vec.Vec3]bool, len(points))
	for _, coords := range points {
		_, before[coords] = wm.chunks.Cell(coords)
	}
	present, lightChanged := wm.chunks.LoadMany(points)

	var loaded []vec.Vec3
	for _, coords := range present {
		if !before[coords] {
			loaded = append(loaded, coords)
		}
	}
	return loaded, lightChanged
}

// outline возвращает загруженных соседей изменившихся чанков: их граничный слой устарел
func (wm *WorldManager) outline(changed []vec.Vec3) []vec.Vec3 {
	skip := make(map[vec.Vec3]struct{}, len(changed))
	for _, coords := range changed {
		skip[coords] = struct{}{}
	}
	set := make(map[vec.Vec3]struct{})
	for _, coords := range changed {
		area.ForEachDelta(func(delta vec.Vec3) {
			neighbor := coords.Add(delta)
			if _, ok := skip[neighbor]; ok {
				return
			}
			if _, ok := wm.chunks.Cell(neighbor); ok {
				set[neighbor] = struct{}{}
			}
		})
	}
	return sortedPositions(set)
}

func (wm *WorldManager) applyEdit(ctx context.Context, pos vec.Vec3, action BlockAction) error {
	result, ok := wm.chunks.Apply(pos, action)
	wm.metrics.observeEdit(ok)
	if !ok {
		wm.logger.Trace("Правка %s в %v отклонена", action, pos)
		return nil
	}
	wm.logger.Debug("Правка %s в %v, изменено позиций: %d", action, pos, len(result.Changed))

	coords := pos.ToChunkCoords()
	var exclude []vec.Vec3
	if result.Loaded || result.Unloaded {
		exclude = append(exclude, coords)
	}
	updates := wm.chunks.UpdatedChunks(result.Changed, exclude...)

	if err := wm.refreshHover(ctx); err != nil {
		return err
	}
	if result.Unloaded {
		if err := wm.sendUnloads(ctx, []vec.Vec3{coords}); err != nil {
			return err
		}
	}
	if result.Loaded {
		if err := wm.sendLoads(ctx, []vec.Vec3{coords}); err != nil {
			return err
		}
	}
	return wm.sendUpdates(ctx, updates)
}

// refreshHover пересчитывает блок под прицелом и сообщает только об изменении
func (wm *WorldManager) refreshHover(ctx context.Context) error {
	if !wm.chunks.Hover(wm.player.Ray) {
		return nil
	}
	event := BlockHovered{}
	if hover, ok := wm.chunks.Hovered(); ok {
		coords := hover.Coords
		event.Coords = &coords
		event.Normal = hover.Normal
		event.Brightness = wm.chunks.Brightness(coords)
	}
	return wm.emit(ctx, event)
}

func (wm *WorldManager) sendLoads(ctx context.Context, points []vec.Vec3) error {
	for _, coords := range points {
		data, ok := wm.chunks.ChunkData(coords)
		if !ok {
			continue
		}
		if err := wm.emit(ctx, ChunkLoaded{Coords: coords, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func (wm *WorldManager) sendUnloads(ctx context.Context, points []vec.Vec3) error {
	for _, coords := range points {
		if err := wm.emit(ctx, ChunkUnloaded{Coords: coords}); err != nil {
			return err
		}
	}
	return nil
}

func (wm *WorldManager) sendUpdates(ctx context.Context, points []vec.Vec3) error {
	for _, coords := range points {
		data, ok := wm.chunks.ChunkData(coords)
		if !ok {
			continue
		}
		if err := wm.emit(ctx, ChunkUpdated{Coords: coords, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func (wm *WorldManager) emit(ctx context.Context, event ServerEvent) error {
	select {
	case wm.out <- event:
		wm.metrics.observeOutbound(event.GetType())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wm *WorldManager) stats() Stats {
	s := Stats{
		LoadedChunks: wm.chunks.Len(),
		Actions:      wm.chunks.Actions().Len(),
		ActionChunks: wm.chunks.Actions().ChunkCount(),
		LightGrids:   wm.chunks.LightEngine().GridCount(),
		Ticks:        wm.currentTick,
	}
	if hover, ok := wm.chunks.Hovered(); ok {
		coords := hover.Coords
		s.Hovered = &coords
	}
	return s
}

func merge(a, b []vec.Vec3) []vec.Vec3 {
	set := make(map[vec.Vec3]struct{}, len(a)+len(b))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		set[p] = struct{}{}
	}
	return sortedPositions(set)
}
