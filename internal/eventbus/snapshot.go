package eventbus

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
)

// Формат снимка до сжатия:
//
//	magic "VXS1" | coords 3×int32 | blocks 4096×uint16 | light 4096×uint32
//
// Все числа little-endian, порядок ячеек совпадает с порядком внутри Chunk.
const (
	snapshotMagic  = "VXS1"
	snapshotHeader = len(snapshotMagic) + 3*4
	snapshotSize   = snapshotHeader + world.ChunkVolume*2 + world.ChunkVolume*4
)

// ErrBadSnapshot полезная нагрузка не является снимком чанка
var ErrBadSnapshot = errors.New("eventbus: bad chunk snapshot")

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(snapshotSize*2)))
)

// Snapshot распакованное содержимое чанка: блоки и свет собственных ячеек
type Snapshot struct {
	Coords vec.Vec3
	Blocks [world.ChunkVolume]block.BlockID
	Light  [world.ChunkVolume]light.BlockLight
}

// Chunk восстанавливает чанк из блоков снимка
func (s *Snapshot) Chunk() *world.Chunk {
	return world.ChunkFromBlocks(s.Blocks)
}

func snapshotLocal(i int) vec.Vec3 {
	return vec.New(i>>(2*vec.ChunkBits), (i>>vec.ChunkBits)&(vec.ChunkDim-1), i&(vec.ChunkDim-1))
}

// EncodeSnapshot сериализует и сжимает данные чанка
func EncodeSnapshot(data *world.ChunkData) ([]byte, error) {
	if data == nil || data.Chunk == nil {
		return nil, fmt.Errorf("%w: no chunk data", ErrBadSnapshot)
	}

	buf := make([]byte, snapshotSize)
	copy(buf, snapshotMagic)
	off := len(snapshotMagic)
	for axis := range 3 {
		binary.LittleEndian.PutUint32(buf[off:], uint32(int32(data.Coords.Get(axis))))
		off += 4
	}

	blocks := data.Chunk.Blocks()
	for _, id := range blocks {
		binary.LittleEndian.PutUint16(buf[off:], uint16(id))
		off += 2
	}

	for i := range world.ChunkVolume {
		value := light.DefaultLight
		if data.Light != nil {
			value = data.Light.At(snapshotLocal(i))
		}
		binary.LittleEndian.PutUint32(buf[off:], uint32(value))
		off += 4
	}

	return encoder.EncodeAll(buf, make([]byte, 0, snapshotSize/8)), nil
}

// DecodeSnapshot распаковывает полезную нагрузку, созданную EncodeSnapshot
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	buf, err := decoder.DecodeAll(payload, make([]byte, 0, snapshotSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if len(buf) != snapshotSize || string(buf[:len(snapshotMagic)]) != snapshotMagic {
		return nil, fmt.Errorf("%w: size %d", ErrBadSnapshot, len(buf))
	}

	s := &Snapshot{}
	off := len(snapshotMagic)
	var coords [3]int
	for axis := range 3 {
		coords[axis] = int(int32(binary.LittleEndian.Uint32(buf[off:])))
		off += 4
	}
	s.Coords = vec.New(coords[0], coords[1], coords[2])

	for i := range s.Blocks {
		id := block.BlockID(binary.LittleEndian.Uint16(buf[off:]))
		if !block.IsValidBlockID(id) {
			return nil, fmt.Errorf("%w: unknown block %d at %v", ErrBadSnapshot, id, snapshotLocal(i))
		}
		s.Blocks[i] = id
		off += 2
	}
	for i := range s.Light {
		s.Light[i] = light.BlockLight(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
	}
	return s, nil
}
