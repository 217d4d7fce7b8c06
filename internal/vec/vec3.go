package vec

import "fmt"

// ChunkBits число бит локальной координаты блока внутри чанка.
const ChunkBits = 4

// ChunkDim длина ребра чанка в блоках.
const ChunkDim = 1 << ChunkBits

// Vec3 представляет трехмерный вектор с целочисленными координатами
type Vec3 struct {
	X int
	Y int
	Z int
}

// Zero нулевой вектор
var Zero = Vec3{}

// New создаёт вектор из трёх координат
func New(x, y, z int) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Splat создаёт вектор с одинаковыми координатами
func Splat(v int) Vec3 {
	return Vec3{X: v, Y: v, Z: v}
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Neg возвращает противоположный вектор
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3) Mul(k int) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// DistanceSquared возвращает квадрат евклидова расстояния до другого вектора
func (v Vec3) DistanceSquared(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// ManhattanTo возвращает манхэттенское расстояние
func (v Vec3) ManhattanTo(other Vec3) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y) + abs(v.Z-other.Z)
}

// Get возвращает координату по индексу оси (0 = X, 1 = Y, 2 = Z)
func (v Vec3) Get(axis int) int {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Sprintf("vec: неверная ось %d", axis))
}

// With возвращает копию вектора с изменённой координатой
func (v Vec3) With(axis, value int) Vec3 {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	case 2:
		v.Z = value
	default:
		panic(fmt.Sprintf("vec: неверная ось %d", axis))
	}
	return v
}

// XZ проецирует вектор на горизонтальную плоскость
func (v Vec3) XZ() Vec2 {
	return Vec2{X: v.X, Y: v.Z}
}

// ToChunkCoords преобразует мировые координаты блока в координаты чанка.
// Арифметический сдвиг даёт деление с округлением вниз и для отрицательных значений.
func (v Vec3) ToChunkCoords() Vec3 {
	return Vec3{X: v.X >> ChunkBits, Y: v.Y >> ChunkBits, Z: v.Z >> ChunkBits}
}

// LocalInChunk возвращает локальные координаты внутри чанка (0..15)
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & (ChunkDim - 1), Y: v.Y & (ChunkDim - 1), Z: v.Z & (ChunkDim - 1)}
}

// ChunkOrigin возвращает мировые координаты блока (0,0,0) чанка
func (v Vec3) ChunkOrigin() Vec3 {
	return v.Mul(ChunkDim)
}

// InChunk проверяет, что локальные координаты лежат в пределах чанка
func (v Vec3) InChunk() bool {
	return v.X >= 0 && v.X < ChunkDim && v.Y >= 0 && v.Y < ChunkDim && v.Z >= 0 && v.Z < ChunkDim
}

// String форматирует вектор для логов
func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// Less задаёт лексикографический порядок (X, Y, Z) для детерминированной сортировки
func (v Vec3) Less(other Vec3) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

// FloorDiv делит с округлением к минус бесконечности
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
