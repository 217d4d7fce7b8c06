package world

import (
	"iter"
	"math"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Reach допустимый диапазон расстояний вдоль луча: [Min, Max)
type Reach struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// Contains проверяет, попадает ли расстояние в диапазон
func (r Reach) Contains(t float32) bool {
	return t >= r.Min && t < r.Max
}

// BlockIntersection блок, через который прошёл луч, и нормаль пересечённой грани.
// У первого блока (в котором находится начало луча) нормаль нулевая.
type BlockIntersection struct {
	Coords vec.Vec3
	Normal vec.Vec3
}

// Target координаты соседнего блока со стороны пересечённой грани
func (b BlockIntersection) Target() vec.Vec3 {
	return b.Coords.Add(b.Normal)
}

// Ray луч взгляда игрока в мировых координатах
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// Cast обходит блоки вдоль луча (алгоритм Amanatides-Woo).
// Обход прекращается, когда расстояние до следующей грани выходит за reach.
func (r Ray) Cast(reach Reach) iter.Seq[BlockIntersection] {
	return func(yield func(BlockIntersection) bool) {
		var (
			curr   [3]int
			step   [3]int
			tMax   [3]float32
			tDelta [3]float32
		)
		for i := 0; i < 3; i++ {
			o, d := r.Origin[i], r.Direction[i]
			curr[i] = int(math.Floor(float64(o)))
			switch {
			case d < 0:
				step[i] = -1
				tDelta[i] = 1 / -d
				tMax[i] = (o - float32(math.Floor(float64(o)))) * tDelta[i]
			case d > 0:
				step[i] = 1
				tDelta[i] = 1 / d
				frac := float32(math.Ceil(float64(o))) - o
				if frac == 0 {
					frac = 1
				}
				tMax[i] = frac * tDelta[i]
			default:
				tDelta[i] = float32(math.Inf(1))
				tMax[i] = float32(math.Inf(1))
			}
		}

		if !yield(BlockIntersection{Coords: vec.New(curr[0], curr[1], curr[2])}) {
			return
		}
		for {
			i := 0
			for j := 1; j < 3; j++ {
				if tMax[j] < tMax[i] {
					i = j
				}
			}
			if !reach.Contains(tMax[i]) {
				return
			}
			curr[i] += step[i]
			tMax[i] += tDelta[i]
			var normal [3]int
			normal[i] = -step[i]
			hit := BlockIntersection{
				Coords: vec.New(curr[0], curr[1], curr[2]),
				Normal: vec.New(normal[0], normal[1], normal[2]),
			}
			if !yield(hit) {
				return
			}
		}
	}
}
