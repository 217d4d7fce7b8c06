package area

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
)

const (
	chunkAreaDim  = vec.ChunkDim + 2*Padding
	chunkAreaSize = chunkAreaDim * chunkAreaDim * chunkAreaDim
)

func chunkAreaIndex(local vec.Vec3) int {
	if local.X < -Padding || local.X >= vec.ChunkDim+Padding ||
		local.Y < -Padding || local.Y >= vec.ChunkDim+Padding ||
		local.Z < -Padding || local.Z >= vec.ChunkDim+Padding {
		panic(fmt.Sprintf("area: координаты %v вне окна чанка", local))
	}
	return (local.X+Padding)*chunkAreaDim*chunkAreaDim + (local.Y+Padding)*chunkAreaDim + local.Z + Padding
}

func forEachChunkAreaCell(fn func(local vec.Vec3)) {
	for x := -Padding; x < vec.ChunkDim+Padding; x++ {
		for y := -Padding; y < vec.ChunkDim+Padding; y++ {
			for z := -Padding; z < vec.ChunkDim+Padding; z++ {
				fn(vec.New(x, y, z))
			}
		}
	}
}

// ChunkArea блоки чанка вместе с граничным слоем соседних чанков
type ChunkArea struct {
	blocks [chunkAreaSize]block.BlockID
}

// NewChunkArea заполняет окно чанка; sample получает мировые координаты
func NewChunkArea(chunk vec.Vec3, sample func(pos vec.Vec3) block.BlockID) *ChunkArea {
	a := &ChunkArea{}
	origin := chunk.ChunkOrigin()
	forEachChunkAreaCell(func(local vec.Vec3) {
		a.blocks[chunkAreaIndex(local)] = sample(origin.Add(local))
	})
	return a
}

// At возвращает блок по координатам относительно начала чанка (-1..16)
func (a *ChunkArea) At(local vec.Vec3) block.BlockID {
	return a.blocks[chunkAreaIndex(local)]
}

// IsOpaque проверяет непрозрачность блока окна
func (a *ChunkArea) IsOpaque(local vec.Vec3) bool {
	return block.Get(a.At(local)).IsOpaque()
}

// BlockArea вырезает окно 3x3x3 вокруг блока чанка
func (a *ChunkArea) BlockArea(local vec.Vec3) BlockArea {
	base := chunkAreaIndex(local)
	_ = chunkAreaIndex(local.Add(vec.Splat(Padding)))
	_ = chunkAreaIndex(local.Sub(vec.Splat(Padding)))
	return NewBlockArea(func(delta vec.Vec3) block.BlockID {
		return a.blocks[base+delta.X*chunkAreaDim*chunkAreaDim+delta.Y*chunkAreaDim+delta.Z]
	})
}

// ChunkAreaLight свет чанка вместе с граничным слоем соседей
type ChunkAreaLight struct {
	lights [chunkAreaSize]light.BlockLight
}

// NewChunkAreaLight заполняет окно света чанка; sample получает мировые координаты
func NewChunkAreaLight(chunk vec.Vec3, sample func(pos vec.Vec3) light.BlockLight) *ChunkAreaLight {
	l := &ChunkAreaLight{}
	origin := chunk.ChunkOrigin()
	forEachChunkAreaCell(func(local vec.Vec3) {
		l.lights[chunkAreaIndex(local)] = sample(origin.Add(local))
	})
	return l
}

// At возвращает свет по координатам относительно начала чанка (-1..16)
func (l *ChunkAreaLight) At(local vec.Vec3) light.BlockLight {
	return l.lights[chunkAreaIndex(local)]
}

// BlockAreaLight вырезает окно света 3x3x3 вокруг блока чанка
func (l *ChunkAreaLight) BlockAreaLight(local vec.Vec3) BlockAreaLight {
	base := chunkAreaIndex(local)
	_ = chunkAreaIndex(local.Add(vec.Splat(Padding)))
	_ = chunkAreaIndex(local.Sub(vec.Splat(Padding)))
	return NewBlockAreaLight(func(delta vec.Vec3) light.BlockLight {
		return l.lights[base+delta.X*chunkAreaDim*chunkAreaDim+delta.Y*chunkAreaDim+delta.Z]
	})
}
