package vec

import "math"

// Vec2 представляет 2D координаты (для мира это плоскость XZ)
type Vec2 struct {
	X, Y int
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// LengthSquared возвращает квадрат длины
func (v Vec2) LengthSquared() int {
	return v.X*v.X + v.Y*v.Y
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	return math.Sqrt(float64(v.Sub(other).LengthSquared()))
}
