package world

import (
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/light"
)

// Вертикальные границы мира в чанках, ChunkMaxY не включается
const (
	ChunkMinY = -4
	ChunkMaxY = 20
)

// Bounds вертикальные границы мира в блоках
var Bounds = light.Bounds{MinY: ChunkMinY * vec.ChunkDim, MaxY: ChunkMaxY * vec.ChunkDim}

// InBounds проверяет высоту чанка
func InBounds(chunk vec.Vec3) bool {
	return chunk.Y >= ChunkMinY && chunk.Y < ChunkMaxY
}

// WorldArea область чанков, на которую подписан игрок:
// цилиндр радиуса Radius по XZ и высотой ±Radius вокруг Center.
type WorldArea struct {
	Center vec.Vec3
	Radius int
}

// NewWorldArea создаёт область вокруг чанка, содержащего позицию pos
func NewWorldArea(pos vec.Vec3, radius int) WorldArea {
	return WorldArea{Center: pos.ToChunkCoords(), Radius: radius}
}

func (a WorldArea) containsXZ(chunk vec.Vec3) bool {
	return chunk.XZ().Sub(a.Center.XZ()).LengthSquared() <= a.Radius*a.Radius
}

// Contains проверяет принадлежность чанка области
func (a WorldArea) Contains(chunk vec.Vec3) bool {
	if a.Radius < 0 || !InBounds(chunk) {
		return false
	}
	dy := chunk.Y - a.Center.Y
	return a.containsXZ(chunk) && dy >= -a.Radius && dy <= a.Radius
}

// Points возвращает все чанки области
func (a WorldArea) Points() []vec.Vec3 {
	if a.Radius < 0 {
		return nil
	}
	minY := max(a.Center.Y-a.Radius, ChunkMinY)
	maxY := min(a.Center.Y+a.Radius, ChunkMaxY-1)

	var points []vec.Vec3
	for dx := -a.Radius; dx <= a.Radius; dx++ {
		for y := minY; y <= maxY; y++ {
			for dz := -a.Radius; dz <= a.Radius; dz++ {
				chunk := vec.New(a.Center.X+dx, y, a.Center.Z+dz)
				if a.containsXZ(chunk) {
					points = append(points, chunk)
				}
			}
		}
	}
	return points
}

// ExclusivePoints возвращает чанки области, не входящие в other
func (a WorldArea) ExclusivePoints(other WorldArea) []vec.Vec3 {
	var points []vec.Vec3
	for _, chunk := range a.Points() {
		if !other.Contains(chunk) {
			points = append(points, chunk)
		}
	}
	return points
}
