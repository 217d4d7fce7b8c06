package block

// Число световых компонент в эмиссии и фильтре (r, g, b)
const ColorChannels = 3

// Data описывает визуальные и световые свойства типа блока
type Data struct {
	Name string
	// Textures хранит индекс текстуры для каждой стороны; nil означает невидимый блок
	Textures *[SideCount]uint8
	// Luminance излучение по каналам, 0..15
	Luminance [ColorChannels]uint8
	// LightFilter доля пропускаемого света по каналам: 0 непрозрачный, 1 полностью прозрачный
	LightFilter [ColorChannels]float32
}

// IsVisible возвращает true, если у блока есть грани для отрисовки
func (d *Data) IsVisible() bool {
	return d.Textures != nil
}

// IsOpaque возвращает true, если блок не пропускает свет ни в одном канале
func (d *Data) IsOpaque() bool {
	return d.LightFilter == [ColorChannels]float32{}
}

// IsTransparent возвращает true для блоков с ненулевым фильтром
func (d *Data) IsTransparent() bool {
	return !d.IsOpaque()
}

// IsGlowing возвращает true для светящихся блоков
func (d *Data) IsGlowing() bool {
	return d.Luminance != [ColorChannels]uint8{}
}

// Filter возвращает фильтр для светового канала (каналы 0..5 отображаются на r, g, b)
func (d *Data) Filter(channel int) float32 {
	return d.LightFilter[channel%ColorChannels]
}

// Emission возвращает излучение блока в световом канале.
// Каналы 0..2 небесные и не излучаются блоками, 3..5 соответствуют Luminance.
func (d *Data) Emission(channel int) uint8 {
	if channel < ColorChannels {
		return 0
	}
	return d.Luminance[channel-ColorChannels]
}

// Texture возвращает индекс текстуры стороны
func (d *Data) Texture(side Side) (uint8, bool) {
	if d.Textures == nil {
		return 0, false
	}
	return d.Textures[side], true
}
