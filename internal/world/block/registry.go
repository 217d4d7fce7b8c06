package block

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков. Набор закрыт: таблица данных обязана описать каждый.
const (
	AirBlockID          BlockID = iota // 0
	SandBlockID                        // 1
	GlowstoneBlockID                   // 2 - светится во всех каналах
	GlassMagentaBlockID                // 3
	GlassCyanBlockID                   // 4
	StoneBlockID                       // 5
	DirtBlockID                        // 6
	GrassBlockID                       // 7

	blockCount
)

var blockNames = [blockCount]string{
	AirBlockID:          "air",
	SandBlockID:         "sand",
	GlowstoneBlockID:    "glowstone",
	GlassMagentaBlockID: "glass_magenta",
	GlassCyanBlockID:    "glass_cyan",
	StoneBlockID:        "stone",
	DirtBlockID:         "dirt",
	GrassBlockID:        "grass",
}

var (
	// ErrAlreadyInitialized возвращается при повторной установке таблицы блоков
	ErrAlreadyInitialized = errors.New("block: реестр уже инициализирован")
	// ErrUnknownBlock возвращается для неизвестного имени блока
	ErrUnknownBlock = errors.New("block: неизвестный блок")
)

// String возвращает имя блока из таблицы
func (id BlockID) String() string {
	if id < blockCount {
		return blockNames[id]
	}
	return fmt.Sprintf("block(%d)", uint16(id))
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	return id < blockCount
}

// IsAir проверяет, является ли блок воздухом
func (id BlockID) IsAir() bool {
	return id == AirBlockID
}

// Data возвращает данные блока из реестра
func (id BlockID) Data() *Data {
	return Get(id)
}

// ParseBlockID ищет блок по имени из таблицы
func ParseBlockID(name string) (BlockID, error) {
	for id, n := range blockNames {
		if n == name {
			return BlockID(id), nil
		}
	}
	return AirBlockID, fmt.Errorf("%w: %q", ErrUnknownBlock, name)
}

// All возвращает все идентификаторы блоков по порядку
func All() []BlockID {
	ids := make([]BlockID, blockCount)
	for i := range ids {
		ids[i] = BlockID(i)
	}
	return ids
}

// registry неизменяем после инициализации, поэтому чтение не требует блокировок
type registry struct {
	data         [blockCount]Data
	texturePaths []string
}

var (
	current     *registry
	currentOnce sync.Once
	installMu   sync.Mutex
	installed   bool
)

// Install устанавливает таблицу блоков. Допустим только один вызов до первого Get.
func Install(table Table) error {
	installMu.Lock()
	defer installMu.Unlock()

	if installed {
		return ErrAlreadyInitialized
	}
	reg, err := table.build()
	if err != nil {
		return err
	}

	var ok bool
	currentOnce.Do(func() {
		current = reg
		ok = true
	})
	if !ok {
		return ErrAlreadyInitialized
	}
	installed = true
	return nil
}

// LoadFile читает таблицу блоков из YAML/JSON файла и устанавливает её
func LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("чтение таблицы блоков %s: %w", path, err)
	}
	table, err := ParseTable(raw)
	if err != nil {
		return fmt.Errorf("таблица блоков %s: %w", path, err)
	}
	return Install(table)
}

func load() *registry {
	currentOnce.Do(func() {
		table, err := ParseTable(defaultTable)
		if err != nil {
			panic(fmt.Sprintf("block: встроенная таблица повреждена: %v", err))
		}
		reg, err := table.build()
		if err != nil {
			panic(fmt.Sprintf("block: встроенная таблица повреждена: %v", err))
		}
		current = reg
	})
	return current
}

// Get возвращает данные блока. Неизвестный ID считается ошибкой программы.
func Get(id BlockID) *Data {
	if !IsValidBlockID(id) {
		panic(fmt.Sprintf("block: неизвестный ID %d", uint16(id)))
	}
	return &load().data[id]
}

// TexturePaths возвращает пути текстур в порядке их индексов
func TexturePaths() []string {
	paths := load().texturePaths
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}
