package world

import (
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
	"github.com/go-gl/mathgl/mgl32"
)

// EventType определяет тип события
type EventType uint8

const (
	EventTypeInitialRender     EventType = iota // Первичный запрос отрисовки
	EventTypePositionChanged                    // Игрок переместился
	EventTypeOrientationChanged                 // Игрок повернул камеру
	EventTypeBlockPlaced                        // Установка блока
	EventTypeBlockDestroyed                     // Разрушение блока
	EventTypeTick                               // Игровой тик
	EventTypeStats                              // Запрос статистики
	EventTypeChunkLoaded                        // Чанк загружен
	EventTypeChunkUnloaded                      // Чанк выгружен
	EventTypeChunkUpdated                       // Чанк изменился
	EventTypeBlockHovered                       // Сменился блок под прицелом
)

var eventTypeNames = [...]string{
	"InitialRenderRequested",
	"PlayerPositionChanged",
	"PlayerOrientationChanged",
	"BlockPlaced",
	"BlockDestroyed",
	"Tick",
	"StatsRequested",
	"ChunkLoaded",
	"ChunkUnloaded",
	"ChunkUpdated",
	"BlockHovered",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "Unknown"
}

// Event представляет собой интерфейс для всех событий
type Event interface {
	GetType() EventType
}

// ClientEvent входящее событие симуляции
type ClientEvent interface {
	Event
	clientEvent()
}

// ServerEvent исходящее событие симуляции
type ServerEvent interface {
	Event
	serverEvent()
}

// InitialRenderRequested первичный запрос: позиция, направление и радиус отрисовки в чанках
type InitialRenderRequested struct {
	Position     mgl32.Vec3
	Direction    mgl32.Vec3
	RenderRadius int
}

// PlayerPositionChanged игрок переместился
type PlayerPositionChanged struct {
	Position mgl32.Vec3
}

// PlayerOrientationChanged игрок повернул камеру
type PlayerOrientationChanged struct {
	Direction mgl32.Vec3
}

// BlockPlaced установка блока на грань блока под прицелом
type BlockPlaced struct {
	Block block.BlockID
}

// BlockDestroyed разрушение блока под прицелом
type BlockDestroyed struct{}

// Tick периодический тик
type Tick struct{}

// Stats состояние мира для отладки
type Stats struct {
	LoadedChunks int
	Actions      int
	ActionChunks int
	LightGrids   int
	Ticks        uint64
	Hovered      *vec.Vec3
}

// StatsRequested запрос статистики; ответ приходит в Reply (буфер не меньше 1)
type StatsRequested struct {
	Reply chan Stats
}

func (InitialRenderRequested) GetType() EventType   { return EventTypeInitialRender }
func (PlayerPositionChanged) GetType() EventType    { return EventTypePositionChanged }
func (PlayerOrientationChanged) GetType() EventType { return EventTypeOrientationChanged }
func (BlockPlaced) GetType() EventType              { return EventTypeBlockPlaced }
func (BlockDestroyed) GetType() EventType           { return EventTypeBlockDestroyed }
func (Tick) GetType() EventType                     { return EventTypeTick }
func (StatsRequested) GetType() EventType           { return EventTypeStats }

func (InitialRenderRequested) clientEvent()   {}
func (PlayerPositionChanged) clientEvent()    {}
func (PlayerOrientationChanged) clientEvent() {}
func (BlockPlaced) clientEvent()              {}
func (BlockDestroyed) clientEvent()           {}
func (Tick) clientEvent()                     {}
func (StatsRequested) clientEvent()           {}

// ChunkLoaded чанк появился в области игрока
type ChunkLoaded struct {
	Coords vec.Vec3
	Data   *ChunkData
}

// ChunkUnloaded чанк удалён
type ChunkUnloaded struct {
	Coords vec.Vec3
}

// ChunkUpdated содержимое или свет чанка изменились
type ChunkUpdated struct {
	Coords vec.Vec3
	Data   *ChunkData
}

// BlockHovered блок под прицелом; Coords == nil, если прицел пуст
type BlockHovered struct {
	Coords     *vec.Vec3
	Normal     vec.Vec3
	Brightness light.BlockLight
}

func (ChunkLoaded) GetType() EventType   { return EventTypeChunkLoaded }
func (ChunkUnloaded) GetType() EventType { return EventTypeChunkUnloaded }
func (ChunkUpdated) GetType() EventType  { return EventTypeChunkUpdated }
func (BlockHovered) GetType() EventType  { return EventTypeBlockHovered }

func (ChunkLoaded) serverEvent()   {}
func (ChunkUnloaded) serverEvent() {}
func (ChunkUpdated) serverEvent()  {}
func (BlockHovered) serverEvent()  {}
