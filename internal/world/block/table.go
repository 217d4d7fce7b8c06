package block

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed assets/blocks.yaml
var defaultTable []byte

//go:embed assets/blocks.schema.json
var tableSchemaSource string

var tableSchema = jsonschema.MustCompileString("blocks.schema.json", tableSchemaSource)

// Entry описание одного блока в декларативной таблице
type Entry struct {
	Textures    map[string]string `yaml:"textures" json:"textures,omitempty"`
	Luminance   []int             `yaml:"luminance" json:"luminance,omitempty"`
	LightFilter []float32         `yaml:"light_filter" json:"light_filter,omitempty"`
}

// Table таблица блоков: имя блока -> описание
type Table map[string]Entry

// DefaultTable возвращает встроенную таблицу блоков
func DefaultTable() (Table, error) {
	return ParseTable(defaultTable)
}

// ParseTable разбирает таблицу в формате YAML или JSON и проверяет её по схеме
func ParseTable(raw []byte) (Table, error) {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("разбор таблицы блоков: %w", err)
	}

	// Схема работает с JSON-значениями, поэтому документ нормализуется через JSON
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("нормализация таблицы блоков: %w", err)
	}
	var value interface{}
	if err := json.Unmarshal(normalized, &value); err != nil {
		return nil, fmt.Errorf("нормализация таблицы блоков: %w", err)
	}
	if err := tableSchema.Validate(value); err != nil {
		return nil, fmt.Errorf("таблица блоков не соответствует схеме: %w", err)
	}

	var table Table
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("разбор таблицы блоков: %w", err)
	}
	return table, nil
}

func (t Table) build() (*registry, error) {
	for name := range t {
		if _, err := ParseBlockID(name); err != nil {
			return nil, err
		}
	}

	reg := &registry{}
	indices := make(map[string]uint8)

	for id := range BlockID(blockCount) {
		name := blockNames[id]
		entry, ok := t[name]
		if !ok {
			return nil, fmt.Errorf("в таблице нет блока %q", name)
		}

		data := Data{Name: name}
		if len(entry.Textures) > 0 {
			var textures [SideCount]uint8
			for side := range Side(SideCount) {
				path := entry.Textures[side.String()]
				if path == "" {
					path = entry.Textures["all"]
				}
				if path == "" {
					return nil, fmt.Errorf("блок %q: нет текстуры для стороны %s", name, side)
				}
				index, seen := indices[path]
				if !seen {
					if len(reg.texturePaths) > 0xFF {
						return nil, fmt.Errorf("слишком много текстур (%d)", len(reg.texturePaths))
					}
					index = uint8(len(reg.texturePaths))
					indices[path] = index
					reg.texturePaths = append(reg.texturePaths, path)
				}
				textures[side] = index
			}
			data.Textures = &textures
		}

		if entry.Luminance != nil {
			if len(entry.Luminance) != ColorChannels {
				return nil, fmt.Errorf("блок %q: luminance должен содержать %d значения", name, ColorChannels)
			}
			for i, v := range entry.Luminance {
				if v < 0 || v > 15 {
					return nil, fmt.Errorf("блок %q: luminance вне диапазона 0..15", name)
				}
				data.Luminance[i] = uint8(v)
			}
		}
		if entry.LightFilter != nil {
			if len(entry.LightFilter) != ColorChannels {
				return nil, fmt.Errorf("блок %q: light_filter должен содержать %d значения", name, ColorChannels)
			}
			copy(data.LightFilter[:], entry.LightFilter)
		}

		reg.data[id] = data
	}

	if !reg.data[AirBlockID].IsTransparent() || reg.data[AirBlockID].IsVisible() {
		return nil, fmt.Errorf("воздух должен быть прозрачным и невидимым")
	}
	return reg, nil
}
