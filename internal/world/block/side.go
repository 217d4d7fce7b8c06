package block

import "github.com/annel0/voxelworld/internal/vec"

// Side сторона (грань) блока
type Side uint8

const (
	Front Side = iota // -Z
	Right             // +X
	Back              // +Z
	Left              // -X
	Up                // +Y
	Down              // -Y

	SideCount = 6
)

var sideDeltas = [SideCount]vec.Vec3{
	Front: {X: 0, Y: 0, Z: -1},
	Right: {X: 1, Y: 0, Z: 0},
	Back:  {X: 0, Y: 0, Z: 1},
	Left:  {X: -1, Y: 0, Z: 0},
	Up:    {X: 0, Y: 1, Z: 0},
	Down:  {X: 0, Y: -1, Z: 0},
}

var sideNames = [SideCount]string{"front", "right", "back", "left", "up", "down"}

// Delta возвращает единичный вектор нормали стороны
func (s Side) Delta() vec.Vec3 {
	return sideDeltas[s]
}

// Opposite возвращает противоположную сторону
func (s Side) Opposite() Side {
	switch s {
	case Front:
		return Back
	case Back:
		return Front
	case Right:
		return Left
	case Left:
		return Right
	case Up:
		return Down
	default:
		return Up
	}
}

func (s Side) String() string {
	return sideNames[s]
}

// Corner угол грани
type Corner uint8

const (
	LowerLeft Corner = iota
	LowerRight
	UpperRight
	UpperLeft

	CornerCount = 4
)

// Component соседняя ячейка угла: два ребра и диагональ
type Component uint8

const (
	Edge1 Component = iota
	Edge2
	Diagonal

	ComponentCount = 3
)

// Порядок вершин двух треугольников квада
var (
	Corners        = [6]Corner{LowerLeft, LowerRight, UpperLeft, LowerRight, UpperRight, UpperLeft}
	FlippedCorners = [6]Corner{LowerLeft, LowerRight, UpperRight, LowerLeft, UpperRight, UpperLeft}
)

var cornerTexCoords = [CornerCount][2]uint8{
	LowerLeft:  {0, 1},
	LowerRight: {1, 1},
	UpperRight: {1, 0},
	UpperLeft:  {0, 0},
}

// TexCoords возвращает текстурные координаты угла
func (c Corner) TexCoords() [2]uint8 {
	return cornerTexCoords[c]
}

// Две стороны в плоскости грани, образующие каждый угол
var sideCornerSides = [SideCount][CornerCount][2]Side{
	Front: {{Left, Down}, {Right, Down}, {Right, Up}, {Left, Up}},
	Right: {{Front, Down}, {Back, Down}, {Back, Up}, {Front, Up}},
	Back:  {{Right, Down}, {Left, Down}, {Left, Up}, {Right, Up}},
	Left:  {{Back, Down}, {Front, Down}, {Front, Up}, {Back, Up}},
	Up:    {{Left, Front}, {Right, Front}, {Right, Back}, {Left, Back}},
	Down:  {{Left, Back}, {Right, Back}, {Right, Front}, {Left, Front}},
}

var (
	componentDeltas [SideCount][CornerCount][ComponentCount]vec.Vec3
	vertexOffsets   [SideCount][CornerCount]vec.Vec3
)

func init() {
	for s := range Side(SideCount) {
		for c := range Corner(CornerCount) {
			pair := sideCornerSides[s][c]
			d1, d2 := pair[0].Delta(), pair[1].Delta()
			diagonal := s.Delta().Add(d1).Add(d2)

			componentDeltas[s][c] = [ComponentCount]vec.Vec3{
				Edge1:    diagonal.Sub(d2),
				Edge2:    diagonal.Sub(d1),
				Diagonal: diagonal,
			}
			sum := diagonal.Add(vec.Splat(1))
			vertexOffsets[s][c] = vec.New(sum.X/2, sum.Y/2, sum.Z/2)
		}
	}
}

// CornerSides возвращает две стороны, образующие угол грани
func (s Side) CornerSides(c Corner) [2]Side {
	return sideCornerSides[s][c]
}

// ComponentDeltas возвращает смещения ребер и диагонали угла относительно блока
func (s Side) ComponentDeltas(c Corner) [ComponentCount]vec.Vec3 {
	return componentDeltas[s][c]
}

// VertexOffset возвращает позицию вершины угла внутри единичного куба
func (s Side) VertexOffset(c Corner) vec.Vec3 {
	return vertexOffsets[s][c]
}

// QuadCorners выбирает порядок вершин квада по AO углов.
// Перевёрнутая диагональ берётся только при строгом неравенстве.
func QuadCorners(aos [CornerCount]uint8) [6]Corner {
	if aos[LowerLeft]+aos[UpperRight] > aos[LowerRight]+aos[UpperLeft] {
		return FlippedCorners
	}
	return Corners
}
