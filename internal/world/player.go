package world

import (
	"math"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockAt возвращает координаты блока, содержащего точку
func BlockAt(p mgl32.Vec3) vec.Vec3 {
	return vec.New(
		int(math.Floor(float64(p.X()))),
		int(math.Floor(float64(p.Y()))),
		int(math.Floor(float64(p.Z()))),
	)
}

// Player состояние игрока на стороне симуляции: подписанная область и луч взгляда.
// Prev хранит область до последнего изменения позиции.
type Player struct {
	Prev WorldArea
	Curr WorldArea
	Ray  Ray

	spawned bool
}

// Spawned возвращает true после первичного запроса отрисовки
func (p *Player) Spawned() bool {
	return p.spawned
}

// Spawn задаёт начальное положение, направление и радиус отрисовки
func (p *Player) Spawn(origin, dir mgl32.Vec3, radius int) {
	p.Curr = NewWorldArea(BlockAt(origin), radius)
	p.Prev = p.Curr
	p.Ray = Ray{Origin: origin, Direction: dir}
	p.spawned = true
}

// Move перемещает игрока. Возвращает true, если сменился центральный чанк.
func (p *Player) Move(origin mgl32.Vec3) bool {
	p.Prev = p.Curr
	p.Curr.Center = BlockAt(origin).ToChunkCoords()
	p.Ray.Origin = origin
	return p.Prev != p.Curr
}

// Look меняет направление взгляда
func (p *Player) Look(dir mgl32.Vec3) {
	p.Ray.Direction = dir
}
