package mesh

import (
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/area"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/annel0/voxelworld/internal/world/light"
	"github.com/stretchr/testify/assert"
)

// snapshot собирает снимок одиночного чанка в пустом мире
func snapshot(coords vec.Vec3, blocks map[vec.Vec3]block.BlockID) *world.ChunkData {
	chunk := world.NewChunk()
	for local, id := range blocks {
		chunk.Set(local, id)
	}
	origin := coords.ChunkOrigin()
	return &world.ChunkData{
		Coords: coords,
		Chunk:  chunk,
		Area: area.NewChunkArea(coords, func(pos vec.Vec3) block.BlockID {
			local := pos.Sub(origin)
			if !local.InChunk() {
				return block.AirBlockID
			}
			return chunk.Get(local)
		}),
		Light: area.NewChunkAreaLight(coords, func(vec.Vec3) light.BlockLight {
			return light.DefaultLight
		}),
	}
}

func facesOf(vertices []Vertex, side block.Side) []Vertex {
	var out []Vertex
	for _, v := range vertices {
		if v.Side == uint8(side) {
			out = append(out, v)
		}
	}
	return out
}

func TestBuildSingleBlock(t *testing.T) {
	m := Build(snapshot(vec.Zero, map[vec.Vec3]block.BlockID{vec.New(1, 1, 1): block.StoneBlockID}))

	assert.Len(t, m.Opaque, 36, "6 граней по 6 вершин")
	assert.Empty(t, m.Transparent)
	for _, v := range m.Opaque {
		assert.Equal(t, uint8(area.AOMax), v.AO, "открытый блок без затенения")
		assert.Equal(t, light.DefaultLight, v.Light)
		for axis := 0; axis < 3; axis++ {
			assert.Contains(t, []uint8{1, 2}, v.Pos[axis])
		}
	}
}

func TestBuildHidesSharedFaces(t *testing.T) {
	m := Build(snapshot(vec.Zero, map[vec.Vec3]block.BlockID{
		vec.New(1, 1, 1): block.StoneBlockID,
		vec.New(2, 1, 1): block.DirtBlockID,
	}))
	assert.Len(t, m.Opaque, 10*6)
}

func TestBuildTransparentStream(t *testing.T) {
	same := Build(snapshot(vec.Zero, map[vec.Vec3]block.BlockID{
		vec.New(1, 1, 1): block.GlassMagentaBlockID,
		vec.New(2, 1, 1): block.GlassMagentaBlockID,
	}))
	assert.Empty(t, same.Opaque)
	assert.Len(t, same.Transparent, 10*6, "одинаковое стекло скрывает общую грань")

	mixed := Build(snapshot(vec.Zero, map[vec.Vec3]block.BlockID{
		vec.New(1, 1, 1): block.GlassMagentaBlockID,
		vec.New(2, 1, 1): block.GlassCyanBlockID,
	}))
	assert.Len(t, mixed.Transparent, 12*6, "разное стекло показывает обе грани")
}

func TestBuildGlowingIgnoresAO(t *testing.T) {
	blocks := map[vec.Vec3]block.BlockID{vec.New(1, 1, 1): block.GlowstoneBlockID}
	for _, d := range []vec.Vec3{vec.New(0, 2, 1), vec.New(2, 2, 1), vec.New(1, 2, 0), vec.New(1, 2, 2)} {
		blocks[d] = block.StoneBlockID
	}
	m := Build(snapshot(vec.Zero, blocks))

	for _, v := range facesOf(m.Opaque, block.Up) {
		if v.Pos[1] == 2 && v.Pos[0] >= 1 && v.Pos[0] <= 2 && v.Pos[2] >= 1 && v.Pos[2] <= 2 {
			assert.Equal(t, uint8(area.AOMax), v.AO)
		}
	}
}

func TestBuildFlipsQuadByAO(t *testing.T) {
	topOf := func(m Mesh) []Vertex {
		var out []Vertex
		for _, v := range facesOf(m.Opaque, block.Up) {
			if v.Pos[1] == 2 && v.Pos[0] <= 2 && v.Pos[0] >= 1 && v.Pos[2] <= 2 && v.Pos[2] >= 1 {
				out = append(out, v)
			}
		}
		return out
	}
	center := vec.New(1, 1, 1)

	// Затенён нижний левый угол: диагональ не переворачивается
	plain := topOf(Build(snapshot(vec.Zero, map[vec.Vec3]block.BlockID{
		center:           block.StoneBlockID,
		vec.New(0, 2, 0): block.StoneBlockID,
	})))
	assert.Len(t, plain, 6)
	assert.Equal(t, uint8(2), plain[0].AO)
	assert.Equal(t, block.UpperLeft.TexCoords(), plain[2].UV)

	// Затенён нижний правый угол: диагональ переворачивается
	flipped := topOf(Build(snapshot(vec.Zero, map[vec.Vec3]block.BlockID{
		center:           block.StoneBlockID,
		vec.New(2, 2, 0): block.StoneBlockID,
	})))
	assert.Len(t, flipped, 6)
	assert.Equal(t, uint8(2), flipped[1].AO)
	assert.Equal(t, block.UpperRight.TexCoords(), flipped[2].UV)
}

func TestVertexPack(t *testing.T) {
	v := Vertex{Pos: [3]uint8{16, 3, 7}, Tex: 5, UV: [2]uint8{1, 0}, Side: uint8(block.Up), AO: 2, Light: light.DefaultLight}
	data, lightBits := v.Pack()

	assert.Equal(t, uint32(16), data&0x1f)
	assert.Equal(t, uint32(3), data>>5&0x1f)
	assert.Equal(t, uint32(7), data>>10&0x1f)
	assert.Equal(t, uint32(5), data>>15&0xff)
	assert.Equal(t, uint32(1), data>>23&1)
	assert.Equal(t, uint32(0), data>>24&1)
	assert.Equal(t, uint32(block.Up), data>>25&0x7)
	assert.Equal(t, uint32(2), data>>28&0x3)
	assert.Equal(t, uint32(light.DefaultLight), lightBits)
}
