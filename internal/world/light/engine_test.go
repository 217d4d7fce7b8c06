package light

import (
	"math/rand"
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockMap map[vec.Vec3]block.BlockID

func (m blockMap) Block(pos vec.Vec3) block.BlockID {
	return m[pos]
}

func (m blockMap) set(pos vec.Vec3, id block.BlockID) {
	if id.IsAir() {
		delete(m, pos)
		return
	}
	m[pos] = id
}

var testBounds = Bounds{MinY: -48, MaxY: 48}

const torch = SkylightChannels

func snapshot(e *Engine, center vec.Vec3, radius int) map[vec.Vec3]BlockLight {
	out := make(map[vec.Vec3]BlockLight)
	for x := -radius; x <= radius; x++ {
		for y := -radius; y <= radius; y++ {
			for z := -radius; z <= radius; z++ {
				pos := center.Add(vec.New(x, y, z))
				out[pos] = e.Light(pos)
			}
		}
	}
	return out
}

func TestBlockLightPacking(t *testing.T) {
	l := FromComponents([ChannelCount]uint8{1, 2, 3, 13, 14, 15})
	assert.Equal(t, [ChannelCount]uint8{1, 2, 3, 13, 14, 15}, l.Components())
	assert.Equal(t, uint8(14), l.WithComponent(0, 14).Component(0))
	assert.Equal(t, uint8(2), l.WithComponent(0, 14).Component(1), "соседние каналы не затрагиваются")
	assert.Panics(t, func() { l.WithComponent(2, 16) }, "значение больше 15 недопустимо")

	assert.Equal(t, [ChannelCount]uint8{15, 15, 15, 0, 0, 0}, DefaultLight.Components())
	assert.Equal(t, uint8(15), DefaultLight.Sup(l).Component(5))
	assert.Equal(t, FromComponents([ChannelCount]uint8{2, 3, 4, 0, 0, 1}),
		Average(FromComponents([ChannelCount]uint8{1, 2, 3, 0, 0, 1}), FromComponents([ChannelCount]uint8{3, 4, 5, 1, 0, 2})))
}

func TestChunkLightDefault(t *testing.T) {
	g := NewChunkLight()
	assert.True(t, g.IsDefault())
	g.Set(vec.New(1, 2, 3), 0)
	assert.False(t, g.IsDefault())
	assert.Equal(t, BlockLight(0), g.Clone().Get(vec.New(1, 2, 3)))
	assert.Panics(t, func() { g.Get(vec.New(16, 0, 0)) })
}

func TestSpreadMatchesDistance(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)

	origin := vec.New(0, 0, 0)
	blocks.set(origin, block.GlowstoneBlockID)
	changed := e.Place(origin, block.GlowstoneBlockID)
	assert.Contains(t, changed, origin)

	for _, p := range []vec.Vec3{
		vec.New(1, 0, 0), vec.New(0, -1, 0), vec.New(3, 2, 1),
		vec.New(-7, 0, 7), vec.New(0, 14, 0), vec.New(15, 0, 0), vec.New(16, 0, 0), vec.New(9, -9, 9),
	} {
		want := 15 - p.ManhattanTo(origin)
		if want < 0 {
			want = 0
		}
		for ch := torch; ch < ChannelCount; ch++ {
			assert.Equal(t, uint8(want), e.Light(p).Component(ch), "точка %v канал %d", p, ch)
		}
	}
	assert.Equal(t, uint8(15), e.Light(origin).Component(torch))
	assert.Equal(t, uint8(0), e.Light(origin).Component(0), "непрозрачный блок гасит небесный свет")
}

func TestPlaceDestroyRestoresLight(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)

	// Второй источник нужен, чтобы проверить повторное распространение
	other := vec.New(5, 0, 0)
	blocks.set(other, block.GlowstoneBlockID)
	e.Place(other, block.GlowstoneBlockID)
	wall := vec.New(2, 1, 0)
	blocks.set(wall, block.StoneBlockID)
	e.Place(wall, block.StoneBlockID)

	before := snapshot(e, vec.Zero, 18)

	pos := vec.New(0, 0, 0)
	blocks.set(pos, block.GlowstoneBlockID)
	placed := e.Place(pos, block.GlowstoneBlockID)
	require.NotEmpty(t, placed)

	blocks.set(pos, block.AirBlockID)
	destroyed := e.Destroy(pos)
	require.NotEmpty(t, destroyed)

	after := snapshot(e, vec.Zero, 18)
	for p, l := range before {
		if !assert.Equal(t, l, after[p], "свет в %v должен восстановиться", p) {
			return
		}
	}
}

func TestOpaqueBlockNeverRaisesLight(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)

	source := vec.New(0, 0, 0)
	blocks.set(source, block.GlowstoneBlockID)
	e.Place(source, block.GlowstoneBlockID)

	target := vec.New(4, 0, 0)
	require.Equal(t, uint8(11), e.Light(target).Component(torch))
	before := snapshot(e, vec.Zero, 16)

	wall := vec.New(2, 0, 0)
	blocks.set(wall, block.StoneBlockID)
	e.Place(wall, block.StoneBlockID)

	assert.Equal(t, uint8(9), e.Light(target).Component(torch), "свет обходит стену по пути длиной 6")
	assert.Equal(t, uint8(0), e.Light(wall).Component(torch))
	for p, l := range before {
		for ch := torch; ch < ChannelCount; ch++ {
			assert.LessOrEqual(t, e.Light(p).Component(ch), l.Component(ch), "точка %v", p)
		}
	}
}

func TestFilterAttenuation(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)

	glass := vec.New(1, 0, 0)
	blocks.set(glass, block.GlassMagentaBlockID)
	e.Place(glass, block.GlassMagentaBlockID)

	source := vec.New(0, 0, 0)
	blocks.set(source, block.GlowstoneBlockID)
	e.Place(source, block.GlowstoneBlockID)

	l := e.Light(glass)
	assert.Equal(t, uint8(14), l.Component(3), "красный проходит полностью")
	assert.Equal(t, uint8(4), l.Component(4), "зелёный: round(14*0.25)")
	assert.Equal(t, uint8(14), l.Component(5))
	assert.Equal(t, uint8(11), e.Light(vec.New(2, 0, 0)).Component(4), "обходной путь ярче света сквозь стекло")
}

func TestSkylightColumn(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)

	roof := vec.New(0, 10, 0)
	blocks.set(roof, block.StoneBlockID)
	changed := e.Place(roof, block.StoneBlockID)
	assert.NotEmpty(t, changed)

	assert.Equal(t, uint8(0), e.Light(roof).Component(0))
	assert.Equal(t, uint8(14), e.Light(vec.New(0, 9, 0)).Component(0), "под крышей свет приходит сбоку")
	assert.Equal(t, uint8(14), e.Light(vec.New(0, testBounds.MinY, 0)).Component(0))
	assert.Equal(t, uint8(15), e.Light(vec.New(1, 9, 0)).Component(0))

	blocks.set(roof, block.AirBlockID)
	e.Destroy(roof)
	for y := testBounds.MinY; y <= 10; y++ {
		assert.Equal(t, uint8(15), e.Light(vec.New(0, y, 0)).Component(0), "высота %d", y)
	}
}

func TestInsertSpreadsGlowingBlocks(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)

	pos := vec.New(18, 3, 4)
	blocks.set(pos, block.GlowstoneBlockID)
	changed := e.Insert(pos.ToChunkCoords())
	assert.NotEmpty(t, changed)
	assert.Equal(t, uint8(15), e.Light(pos).Component(torch))
	assert.Equal(t, uint8(14), e.Light(pos.Add(vec.New(0, 1, 0))).Component(torch))

	assert.Empty(t, e.Insert(pos.ToChunkCoords()), "повторная вставка ничего не меняет")
}

func TestInsertRetractsStaleLight(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)

	source := vec.New(0, 0, 0)
	blocks.set(source, block.GlowstoneBlockID)
	e.Place(source, block.GlowstoneBlockID)

	// Чанк загрузился с блоком, через который раньше проходил свет
	inner := vec.New(-2, 0, 0)
	blocks.set(inner, block.StoneBlockID)
	e.Insert(inner.ToChunkCoords())

	assert.Equal(t, uint8(0), e.Light(inner).Component(torch))
	assert.Equal(t, uint8(10), e.Light(vec.New(-3, 0, 0)).Component(torch), "свет обходит новый блок")
}

func TestBoundsAreRespected(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, Bounds{MinY: 0, MaxY: 16})

	pos := vec.New(0, 0, 0)
	blocks.set(pos, block.GlowstoneBlockID)
	changed := e.Place(pos, block.GlowstoneBlockID)
	for _, p := range changed {
		assert.True(t, p.Y >= 0 && p.Y < 16, "изменение %v вне границ мира", p)
	}
	assert.Equal(t, DefaultLight, e.Light(vec.New(0, -1, 0)))
}

// Случайные правки должны давать тот же свет от блоков, что и расчёт с нуля
func TestIncrementalMatchesFreshComputation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)
	kinds := []block.BlockID{block.GlowstoneBlockID, block.StoneBlockID, block.GlassMagentaBlockID, block.GlassCyanBlockID}

	for step := 0; step < 300; step++ {
		pos := vec.New(rng.Intn(9)-4, rng.Intn(9)-4, rng.Intn(9)-4)
		if blocks.Block(pos).IsAir() {
			id := kinds[rng.Intn(len(kinds))]
			blocks.set(pos, id)
			e.Place(pos, id)
		} else {
			blocks.set(pos, block.AirBlockID)
			e.Destroy(pos)
		}
	}

	fresh := NewEngine(blocks, testBounds)
	for pos, id := range blocks {
		if block.Get(id).IsGlowing() {
			fresh.Place(pos, id)
		}
	}

	for pos, want := range snapshot(fresh, vec.Zero, 20) {
		got := e.Light(pos)
		for ch := torch; ch < ChannelCount; ch++ {
			if !assert.Equal(t, want.Component(ch), got.Component(ch), "точка %v канал %d", pos, ch) {
				return
			}
		}
	}
}

func TestDropRemovesOnlyDefaultGrids(t *testing.T) {
	blocks := blockMap{}
	e := NewEngine(blocks, testBounds)

	glow := vec.New(0, 0, 0)
	blocks.set(glow, block.GlowstoneBlockID)
	e.Place(glow, block.GlowstoneBlockID)

	// сетка создана, но вернулась к значению по умолчанию
	far := vec.New(0, 0, 100)
	e.begin()
	e.setComponent(far, torch, 3)
	e.setComponent(far, torch, 0)
	assert.Empty(t, e.finish())
	_, ok := e.Grid(far.ToChunkCoords())
	require.True(t, ok)

	grids := e.GridCount()
	assert.Equal(t, 1, e.Drop(glow.ToChunkCoords(), far.ToChunkCoords(), vec.New(50, 0, 0)))
	assert.Equal(t, grids-1, e.GridCount())

	_, ok = e.Grid(far.ToChunkCoords())
	assert.False(t, ok)
	assert.Equal(t, DefaultLight, e.Light(far))
	assert.Equal(t, uint8(ComponentMax), e.Light(glow).Component(torch), "освещённая сетка сохранена")
}
