// Package area строит окна соседства вокруг блока и чанка: по ним
// считаются видимость граней, ambient occlusion и сглаженный свет.
package area

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
)

// Padding ширина окна соседства вокруг блока
const Padding = 1

const (
	blockAreaDim  = 1 + 2*Padding
	blockAreaSize = blockAreaDim * blockAreaDim * blockAreaDim
)

// AOMax значение AO для полностью открытого угла
const AOMax = 3

func blockAreaIndex(delta vec.Vec3) int {
	if delta.X < -Padding || delta.X > Padding ||
		delta.Y < -Padding || delta.Y > Padding ||
		delta.Z < -Padding || delta.Z > Padding {
		panic(fmt.Sprintf("area: смещение %v вне окна соседства", delta))
	}
	return (delta.X+Padding)*blockAreaDim*blockAreaDim + (delta.Y+Padding)*blockAreaDim + delta.Z + Padding
}

// ForEachDelta перебирает все смещения окна 3x3x3
func ForEachDelta(fn func(delta vec.Vec3)) {
	for x := -Padding; x <= Padding; x++ {
		for y := -Padding; y <= Padding; y++ {
			for z := -Padding; z <= Padding; z++ {
				fn(vec.New(x, y, z))
			}
		}
	}
}

// BlockArea блоки вокруг одного блока, адресуемые смещением от него
type BlockArea struct {
	blocks [blockAreaSize]block.BlockID
}

// NewBlockArea заполняет окно по функции выборки от смещения
func NewBlockArea(sample func(delta vec.Vec3) block.BlockID) BlockArea {
	var a BlockArea
	ForEachDelta(func(delta vec.Vec3) {
		a.blocks[blockAreaIndex(delta)] = sample(delta)
	})
	return a
}

// Block возвращает центральный блок
func (a *BlockArea) Block() block.BlockID {
	return a.blocks[blockAreaSize/2]
}

// At возвращает блок по смещению
func (a *BlockArea) At(delta vec.Vec3) block.BlockID {
	return a.blocks[blockAreaIndex(delta)]
}

// IsOpaque проверяет непрозрачность блока по смещению
func (a *BlockArea) IsOpaque(delta vec.Vec3) bool {
	return block.Get(a.At(delta)).IsOpaque()
}

// IsSideVisible грань видна, если сосед прозрачен и не совпадает с самим блоком
func (a *BlockArea) IsSideVisible(side block.Side) bool {
	neighbor := a.At(side.Delta())
	return neighbor != a.Block() && block.Get(neighbor).IsTransparent()
}

// CornerAO считает ambient occlusion угла грани
func (a *BlockArea) CornerAO(side block.Side, corner block.Corner) uint8 {
	deltas := side.ComponentDeltas(corner)
	edge1 := a.IsOpaque(deltas[block.Edge1])
	edge2 := a.IsOpaque(deltas[block.Edge2])
	if edge1 && edge2 {
		return 0
	}
	occluders := b2u(edge1) + b2u(edge2) + b2u(a.IsOpaque(deltas[block.Diagonal]))
	return AOMax - occluders
}

// CornerAOs считает AO всех четырёх углов. Светящиеся блоки не затеняются.
func (a *BlockArea) CornerAOs(side block.Side) [block.CornerCount]uint8 {
	var out [block.CornerCount]uint8
	glowing := block.Get(a.Block()).IsGlowing()
	for corner := range block.Corner(block.CornerCount) {
		if glowing {
			out[corner] = AOMax
			continue
		}
		out[corner] = a.CornerAO(side, corner)
	}
	return out
}

func b2u(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// BlockAreaLight свет вокруг одного блока
type BlockAreaLight struct {
	lights [blockAreaSize]light.BlockLight
}

// NewBlockAreaLight заполняет окно света по функции выборки от смещения
func NewBlockAreaLight(sample func(delta vec.Vec3) light.BlockLight) BlockAreaLight {
	var l BlockAreaLight
	ForEachDelta(func(delta vec.Vec3) {
		l.lights[blockAreaIndex(delta)] = sample(delta)
	})
	return l
}

// Light возвращает собственный свет центрального блока
func (l *BlockAreaLight) Light() light.BlockLight {
	return l.lights[blockAreaSize/2]
}

// At возвращает свет по смещению
func (l *BlockAreaLight) At(delta vec.Vec3) light.BlockLight {
	return l.lights[blockAreaIndex(delta)]
}

// CornerLight усредняет свет прозрачных ячеек угла: соседа по нормали,
// двух рёбер и диагонали. Результат не опускается ниже света самого блока,
// без прозрачных ячеек это просто свет блока.
func (l *BlockAreaLight) CornerLight(a *BlockArea, side block.Side, corner block.Corner) light.BlockLight {
	deltas := side.ComponentDeltas(corner)
	candidates := [...]vec.Vec3{side.Delta(), deltas[block.Edge1], deltas[block.Edge2], deltas[block.Diagonal]}

	contributors := make([]light.BlockLight, 0, len(candidates))
	for _, delta := range candidates {
		if !a.IsOpaque(delta) {
			contributors = append(contributors, l.At(delta))
		}
	}
	if len(contributors) == 0 {
		return l.Light()
	}
	return light.Average(contributors...).Sup(l.Light())
}

// CornerLights считает свет всех углов грани
func (l *BlockAreaLight) CornerLights(a *BlockArea, side block.Side) [block.CornerCount]light.BlockLight {
	var out [block.CornerCount]light.BlockLight
	for corner := range block.Corner(block.CornerCount) {
		out[corner] = l.CornerLight(a, side, corner)
	}
	return out
}

// Brightness покомпонентный максимум света углов видимых граней.
// Используется для подсветки выделенного блока.
func (l *BlockAreaLight) Brightness(a *BlockArea) light.BlockLight {
	var out light.BlockLight
	visible := false
	for side := range block.Side(block.SideCount) {
		if !a.IsSideVisible(side) {
			continue
		}
		visible = true
		for _, corner := range l.CornerLights(a, side) {
			out = out.Sup(corner)
		}
	}
	if !visible {
		return l.Light()
	}
	return out
}
