// Package light хранит многоканальное освещение мира и инкрементально
// пересчитывает его при установке и разрушении блоков.
package light

import (
	"fmt"
	"strings"

	"github.com/annel0/voxelworld/internal/vec"
)

const (
	// ChannelCount число независимых световых каналов
	ChannelCount = 6
	// SkylightChannels каналы [0, SkylightChannels) небесные, остальные от блоков
	SkylightChannels = 3
	// ComponentMax максимальное значение компоненты
	ComponentMax = 15

	componentBits = 4
	componentMask = 1<<componentBits - 1
)

// BlockLight упакованное значение света: 6 каналов по 4 бита
type BlockLight uint32

// DefaultLight значение ячейки без сохранённого света: полное небо, нет света от блоков
const DefaultLight BlockLight = ComponentMax | ComponentMax<<componentBits | ComponentMax<<(2*componentBits)

// IsSkylight проверяет, является ли канал небесным
func IsSkylight(channel int) bool {
	return channel < SkylightChannels
}

// FromComponents упаковывает компоненты в значение
func FromComponents(components [ChannelCount]uint8) BlockLight {
	var l BlockLight
	for i, c := range components {
		l = l.WithComponent(i, c)
	}
	return l
}

// Component возвращает значение канала
func (l BlockLight) Component(channel int) uint8 {
	return uint8(l>>(channel*componentBits)) & componentMask
}

// WithComponent возвращает копию с изменённым каналом
func (l BlockLight) WithComponent(channel int, value uint8) BlockLight {
	if value > ComponentMax {
		panic(fmt.Sprintf("light: значение %d вне диапазона 0..%d", value, ComponentMax))
	}
	shift := channel * componentBits
	return l&^(componentMask<<shift) | BlockLight(value)<<shift
}

// Components распаковывает все каналы
func (l BlockLight) Components() [ChannelCount]uint8 {
	var out [ChannelCount]uint8
	for i := range out {
		out[i] = l.Component(i)
	}
	return out
}

// Sup покомпонентный максимум
func (l BlockLight) Sup(other BlockLight) BlockLight {
	out := l
	for i := 0; i < ChannelCount; i++ {
		if c := other.Component(i); c > out.Component(i) {
			out = out.WithComponent(i, c)
		}
	}
	return out
}

// Average покомпонентное среднее с целочисленным делением
func Average(lights ...BlockLight) BlockLight {
	if len(lights) == 0 {
		return 0
	}
	var sums [ChannelCount]int
	for _, l := range lights {
		for i := range sums {
			sums[i] += int(l.Component(i))
		}
	}
	var out BlockLight
	for i, s := range sums {
		out = out.WithComponent(i, uint8(s/len(lights)))
	}
	return out
}

func (l BlockLight) String() string {
	c := l.Components()
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ChunkLight плотная сетка света одного чанка
type ChunkLight struct {
	values [vec.ChunkDim * vec.ChunkDim * vec.ChunkDim]BlockLight
}

// NewChunkLight создаёт сетку, заполненную DefaultLight
func NewChunkLight() *ChunkLight {
	g := &ChunkLight{}
	for i := range g.values {
		g.values[i] = DefaultLight
	}
	return g
}

func index(local vec.Vec3) int {
	if !local.InChunk() {
		panic(fmt.Sprintf("light: локальные координаты %v вне чанка", local))
	}
	return local.X<<(2*vec.ChunkBits) | local.Y<<vec.ChunkBits | local.Z
}

// Get возвращает свет ячейки
func (g *ChunkLight) Get(local vec.Vec3) BlockLight {
	return g.values[index(local)]
}

// Set записывает свет ячейки
func (g *ChunkLight) Set(local vec.Vec3, value BlockLight) {
	g.values[index(local)] = value
}

// IsDefault проверяет, что сетка не отличается от значения по умолчанию
func (g *ChunkLight) IsDefault() bool {
	for _, v := range g.values {
		if v != DefaultLight {
			return false
		}
	}
	return true
}

// Clone возвращает независимую копию
func (g *ChunkLight) Clone() *ChunkLight {
	c := *g
	return &c
}
