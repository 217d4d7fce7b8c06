// Package mesh строит вершинные буферы чанков вне горутины симуляции.
package mesh

import (
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
)

// Vertex вершина грани блока
type Vertex struct {
	Pos   [3]uint8 // координаты внутри чанка, 0..16
	Tex   uint8    // индекс текстуры
	UV    [2]uint8 // текстурные координаты угла, 0 или 1
	Side  uint8
	AO    uint8 // 0..3
	Light light.BlockLight
}

// Pack упаковывает вершину в два слова для вершинного буфера
func (v Vertex) Pack() (data uint32, lightBits uint32) {
	data |= uint32(v.Pos[0])
	data |= uint32(v.Pos[1]) << 5
	data |= uint32(v.Pos[2]) << 10
	data |= uint32(v.Tex) << 15
	data |= uint32(v.UV[0]) << 23
	data |= uint32(v.UV[1]) << 24
	data |= uint32(v.Side) << 25
	data |= uint32(v.AO) << 28
	return data, uint32(v.Light)
}

// Mesh вершины чанка, разделённые на непрозрачные и прозрачные.
// Прозрачные грани рисуются после непрозрачных в порядке удаления от камеры.
type Mesh struct {
	Opaque      []Vertex
	Transparent []Vertex
}

// IsEmpty возвращает true, если у чанка нет видимых граней
func (m Mesh) IsEmpty() bool {
	return len(m.Opaque) == 0 && len(m.Transparent) == 0
}

// Len общее число вершин
func (m Mesh) Len() int {
	return len(m.Opaque) + len(m.Transparent)
}

// Build строит меш по снимку чанка
func Build(data *world.ChunkData) Mesh {
	var m Mesh
	data.Chunk.ForEach(func(local vec.Vec3, id block.BlockID) {
		if id.IsAir() {
			return
		}
		blockData := id.Data()
		if !blockData.IsVisible() {
			return
		}

		blocks := data.Area.BlockArea(local)
		lights := data.Light.BlockAreaLight(local)
		target := &m.Opaque
		if blockData.IsTransparent() {
			target = &m.Transparent
		}

		for side := range block.Side(block.SideCount) {
			if !blocks.IsSideVisible(side) {
				continue
			}
			tex, _ := blockData.Texture(side)
			aos := blocks.CornerAOs(side)
			cornerLights := lights.CornerLights(&blocks, side)

			for _, corner := range block.QuadCorners(aos) {
				pos := local.Add(side.VertexOffset(corner))
				*target = append(*target, Vertex{
					Pos:   [3]uint8{uint8(pos.X), uint8(pos.Y), uint8(pos.Z)},
					Tex:   tex,
					UV:    corner.TexCoords(),
					Side:  uint8(side),
					AO:    aos[corner],
					Light: cornerLights[corner],
				})
			}
		}
	})
	return m
}
