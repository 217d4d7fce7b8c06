package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	air := Get(AirBlockID)
	assert.True(t, air.IsTransparent(), "воздух должен быть прозрачным")
	assert.False(t, air.IsVisible(), "воздух не должен иметь граней")

	glow := Get(GlowstoneBlockID)
	assert.True(t, glow.IsOpaque(), "светокамень непрозрачен")
	assert.True(t, glow.IsGlowing(), "светокамень должен светиться")
	assert.Equal(t, uint8(0), glow.Emission(0), "небесные каналы не излучаются")
	assert.Equal(t, uint8(15), glow.Emission(4))

	glass := Get(GlassMagentaBlockID)
	assert.True(t, glass.IsTransparent())
	assert.Equal(t, float32(0.25), glass.Filter(4), "канал 4 соответствует зелёному фильтру")

	grass := Get(GrassBlockID)
	require.True(t, grass.IsVisible())
	dirt := Get(DirtBlockID)
	assert.Equal(t, dirt.Textures[Up], grass.Textures[Down], "одинаковые пути получают один индекс")
	assert.NotEqual(t, grass.Textures[Up], grass.Textures[Front])

	paths := TexturePaths()
	assert.Equal(t, "textures/sand.png", paths[0], "индексы выдаются в порядке появления")
}

func TestGetUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { Get(BlockID(999)) })
}

func TestParseBlockID(t *testing.T) {
	id, err := ParseBlockID("glass_cyan")
	require.NoError(t, err)
	assert.Equal(t, GlassCyanBlockID, id)
	assert.Equal(t, "glass_cyan", id.String())

	_, err = ParseBlockID("bedrock")
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestParseTableRejectsInvalid(t *testing.T) {
	_, err := ParseTable([]byte("sand:\n  luminance: [16, 0, 0]\n"))
	assert.Error(t, err, "излучение больше 15 должно отклоняться схемой")

	_, err = ParseTable([]byte("sand:\n  light_filter: [0.5, 2, 0]\n"))
	assert.Error(t, err, "фильтр больше 1 должен отклоняться схемой")

	_, err = ParseTable([]byte("sand:\n  colour: red\n"))
	assert.Error(t, err, "неизвестные поля запрещены")

	_, err = ParseTable([]byte(`{"sand": {"luminance": [1, 2]}}`))
	assert.Error(t, err, "неполный вектор должен отклоняться")
}

func TestTableBuild(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	_, err = table.build()
	require.NoError(t, err)

	table["bedrock"] = Entry{}
	_, err = table.build()
	assert.ErrorIs(t, err, ErrUnknownBlock)
	delete(table, "bedrock")

	table["sand"] = Entry{Textures: map[string]string{"up": "sand.png"}}
	_, err = table.build()
	assert.Error(t, err, "без all все стороны обязательны")

	delete(table, "sand")
	_, err = table.build()
	assert.Error(t, err, "каждый блок обязан присутствовать")
}

func TestJSONTable(t *testing.T) {
	table, err := ParseTable([]byte(`{"air": {"light_filter": [1, 1, 1]}, "glowstone": {"luminance": [3, 4, 5]}}`))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, table["glowstone"].Luminance)
}

func TestInstallAfterUse(t *testing.T) {
	_ = Get(AirBlockID)
	table, err := DefaultTable()
	require.NoError(t, err)
	assert.ErrorIs(t, Install(table), ErrAlreadyInitialized)
}
