package world

import (
	"encoding/binary"
	"fmt"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/cespare/xxhash/v2"
)

// ChunkVolume число блоков в чанке
const ChunkVolume = vec.ChunkDim * vec.ChunkDim * vec.ChunkDim

// ActionKind тип правки блока
type ActionKind uint8

const (
	ActionPlace   ActionKind = iota // Установка блока в воздух
	ActionDestroy                   // Разрушение непустого блока
)

// BlockAction правка одного блока
type BlockAction struct {
	Kind  ActionKind
	Block block.BlockID // Только для ActionPlace
}

// Place создаёт правку установки блока
func Place(id block.BlockID) BlockAction {
	return BlockAction{Kind: ActionPlace, Block: id}
}

// Destroy создаёт правку разрушения блока
func Destroy() BlockAction {
	return BlockAction{Kind: ActionDestroy}
}

func (a BlockAction) String() string {
	if a.Kind == ActionPlace {
		return fmt.Sprintf("place(%s)", a.Block)
	}
	return "destroy"
}

// Chunk плотный массив блоков 16x16x16
type Chunk struct {
	blocks  [ChunkVolume]block.BlockID
	nonAir  int // число непустых блоков
	glowing int // число светящихся блоков
}

// NewChunk создаёт чанк, заполненный воздухом
func NewChunk() *Chunk {
	return &Chunk{}
}

func chunkIndex(local vec.Vec3) int {
	if !local.InChunk() {
		panic(fmt.Sprintf("world: локальные координаты %v вне чанка", local))
	}
	return local.X<<(2*vec.ChunkBits) | local.Y<<vec.ChunkBits | local.Z
}

// Get возвращает блок по локальным координатам
func (c *Chunk) Get(local vec.Vec3) block.BlockID {
	return c.blocks[chunkIndex(local)]
}

// Set записывает блок без проверок и поддерживает счётчики
func (c *Chunk) Set(local vec.Vec3, id block.BlockID) {
	i := chunkIndex(local)
	old := c.blocks[i]
	if old == id {
		return
	}
	if !old.IsAir() {
		c.nonAir--
	}
	if block.Get(old).IsGlowing() {
		c.glowing--
	}
	if !id.IsAir() {
		c.nonAir++
	}
	if block.Get(id).IsGlowing() {
		c.glowing++
	}
	c.blocks[i] = id
}

// Apply применяет правку с проверкой предусловия: установка только в воздух,
// разрушение только непустого блока. Возвращает false, если правка отклонена.
func (c *Chunk) Apply(local vec.Vec3, action BlockAction) bool {
	current := c.Get(local)
	switch action.Kind {
	case ActionPlace:
		if !current.IsAir() || action.Block.IsAir() {
			return false
		}
		c.Set(local, action.Block)
	case ActionDestroy:
		if current.IsAir() {
			return false
		}
		c.Set(local, block.AirBlockID)
	default:
		return false
	}
	return true
}

// ApplyUnchecked применяет правку без проверки (повтор журнала правок)
func (c *Chunk) ApplyUnchecked(local vec.Vec3, action BlockAction) {
	if action.Kind == ActionPlace {
		c.Set(local, action.Block)
		return
	}
	c.Set(local, block.AirBlockID)
}

// IsEmpty возвращает true, если в чанке только воздух
func (c *Chunk) IsEmpty() bool {
	return c.nonAir == 0
}

// IsGlowing возвращает true, если в чанке есть светящиеся блоки
func (c *Chunk) IsGlowing() bool {
	return c.glowing > 0
}

// BlockCount число непустых блоков
func (c *Chunk) BlockCount() int {
	return c.nonAir
}

// Clone возвращает независимую копию чанка
func (c *Chunk) Clone() *Chunk {
	clone := *c
	return &clone
}

// ForEach вызывает fn для каждого непустого блока
func (c *Chunk) ForEach(fn func(local vec.Vec3, id block.BlockID)) {
	if c.IsEmpty() {
		return
	}
	for i, id := range c.blocks {
		if id.IsAir() {
			continue
		}
		fn(vec.New(i>>(2*vec.ChunkBits), (i>>vec.ChunkBits)&(vec.ChunkDim-1), i&(vec.ChunkDim-1)), id)
	}
}

// Blocks возвращает копию сырого массива блоков
func (c *Chunk) Blocks() [ChunkVolume]block.BlockID {
	return c.blocks
}

// ChunkFromBlocks восстанавливает чанк из сырого массива блоков
func ChunkFromBlocks(blocks [ChunkVolume]block.BlockID) *Chunk {
	c := NewChunk()
	for i, id := range blocks {
		if !id.IsAir() {
			c.Set(vec.New(i>>(2*vec.ChunkBits), (i>>vec.ChunkBits)&(vec.ChunkDim-1), i&(vec.ChunkDim-1)), id)
		}
	}
	return c
}

// Fingerprint хэш содержимого чанка для логов и метаданных событий
func (c *Chunk) Fingerprint() uint64 {
	var buf [ChunkVolume * 2]byte
	for i, id := range c.blocks {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(id))
	}
	return xxhash.Sum64(buf[:])
}

// ChunkCell чанк в карте вместе со счётчиком загрузок
type ChunkCell struct {
	Chunk *Chunk
	Loads int
}
