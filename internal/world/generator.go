package world

import (
	"math/rand"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/util"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/dgraph-io/ristretto"
)

// Generator создаёт исходное содержимое чанка. Реализации обязаны быть чистыми
// функциями координат: генерация выполняется параллельно.
type Generator interface {
	Generate(coords vec.Vec3) *Chunk
}

// GeneratorFunc адаптер функции к интерфейсу Generator
type GeneratorFunc func(coords vec.Vec3) *Chunk

// Generate вызывает функцию
func (f GeneratorFunc) Generate(coords vec.Vec3) *Chunk {
	return f(coords)
}

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeMountains
)

// Константы для генерации рельефа
const (
	MountainStart = 0.75 // Выше - каменные горы
	DirtDepth     = 3    // Толщина слоя земли под поверхностью
	GlowstoneRate = 0.002
)

// WorldGenerator генерирует ландшафт по карте высот из шума Перлина
type WorldGenerator struct {
	Seed       int64   // Сид для генерации шума
	NoiseScale float64 // Масштаб основного шума (высота)
	BiomeScale float64 // Масштаб шума биомов
	BaseHeight int     // Высота поверхности при нулевом шуме
	Amplitude  int     // Размах высот

	height *util.Noise
	biome  *util.Noise
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:       seed,
		NoiseScale: 0.02, // Настройка сглаженности ландшафта
		BiomeScale: 0.01, // Настройка размера биомов
		BaseHeight: 40,
		Amplitude:  48,
		height:     util.NewNoise(seed),
		biome:      util.NewNoise(seed + 42),
	}
}

// Generate генерирует чанк по его координатам
func (wg *WorldGenerator) Generate(coords vec.Vec3) *Chunk {
	chunk := NewChunk()

	// Детерминированный генератор случайных чисел для чанка
	chunkSeed := wg.Seed + int64(coords.X*31) + int64(coords.Y*17) + int64(coords.Z*13)
	rng := rand.New(rand.NewSource(chunkSeed))

	origin := coords.ChunkOrigin()
	for x := 0; x < vec.ChunkDim; x++ {
		for z := 0; z < vec.ChunkDim; z++ {
			globalX := float64(origin.X + x)
			globalZ := float64(origin.Z + z)

			height := wg.height.Noise2D(globalX*wg.NoiseScale, globalZ*wg.NoiseScale)
			biome := wg.getBiomeType(height, wg.biome.Noise2D(globalX*wg.BiomeScale, globalZ*wg.BiomeScale))
			surface := wg.BaseHeight + int(height*float64(wg.Amplitude))

			for y := 0; y < vec.ChunkDim; y++ {
				globalY := origin.Y + y
				if globalY > surface {
					break
				}
				id := wg.getBlockForDepth(surface-globalY, biome)
				if id == block.StoneBlockID && rng.Float64() < GlowstoneRate {
					id = block.GlowstoneBlockID
				}
				chunk.Set(vec.New(x, y, z), id)
			}
		}
	}

	return chunk
}

// getBlockForDepth возвращает блок по глубине под поверхностью
func (wg *WorldGenerator) getBlockForDepth(depth int, biome BiomeType) block.BlockID {
	switch {
	case biome == BiomeMountains:
		return block.StoneBlockID
	case depth == 0 && biome == BiomeDesert:
		return block.SandBlockID
	case depth == 0:
		return block.GrassBlockID
	case depth <= DirtDepth && biome == BiomeDesert:
		return block.SandBlockID
	case depth <= DirtDepth:
		return block.DirtBlockID
	default:
		return block.StoneBlockID
	}
}

// getBiomeType определяет тип биома на основе значений шума
func (wg *WorldGenerator) getBiomeType(height, biomeValue float64) BiomeType {
	if height > MountainStart {
		return BiomeMountains
	}
	if biomeValue < 0.35 {
		return BiomeDesert
	}
	return BiomePlains
}

// FlatGenerator заполняет всё ниже Height одним блоком
type FlatGenerator struct {
	Height int
	Block  block.BlockID
}

// Generate генерирует плоский чанк
func (g FlatGenerator) Generate(coords vec.Vec3) *Chunk {
	chunk := NewChunk()
	origin := coords.ChunkOrigin()
	for y := 0; y < vec.ChunkDim; y++ {
		if origin.Y+y >= g.Height {
			break
		}
		for x := 0; x < vec.ChunkDim; x++ {
			for z := 0; z < vec.ChunkDim; z++ {
				chunk.Set(vec.New(x, y, z), g.Block)
			}
		}
	}
	return chunk
}

// CachedGenerator кэширует результат вложенного генератора.
// Из кэша всегда отдаётся копия: вызывающий код накатывает на неё правки.
type CachedGenerator struct {
	inner Generator
	cache *ristretto.Cache
}

// NewCachedGenerator создаёт кэш на maxChunks сгенерированных чанков
func NewCachedGenerator(inner Generator, maxChunks int64) (*CachedGenerator, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxChunks * 10,
		MaxCost:     maxChunks,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	logging.Debug("Кэш генератора: до %d чанков", maxChunks)
	return &CachedGenerator{inner: inner, cache: cache}, nil
}

// Generate возвращает копию чанка из кэша или генерирует новый
func (g *CachedGenerator) Generate(coords vec.Vec3) *Chunk {
	key := coords.String()
	if cached, ok := g.cache.Get(key); ok {
		return cached.(*Chunk).Clone()
	}
	chunk := g.inner.Generate(coords)
	g.cache.Set(key, chunk.Clone(), 1)
	return chunk
}

// Close освобождает ресурсы кэша
func (g *CachedGenerator) Close() {
	g.cache.Close()
}
