package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig путь к конфигурации не задан ни аргументом, ни через VOXEL_CONFIG
var ErrNoConfig = errors.New("config: путь к конфигурации не задан")

// Config корневая структура конфигурации приложения
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Mesh      MeshConfig      `yaml:"mesh"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Seed           int64         `yaml:"seed"`
	BlockTable     string        `yaml:"block_table"`    // пусто - встроенная таблица
	Parallelism    int           `yaml:"parallelism"`    // 0 - число ядер
	CacheChunks    int64         `yaml:"cache_chunks"`   // 0 - без кэша генератора
	RenderRadius   int           `yaml:"render_radius"`  // радиус по умолчанию для отладочного API
	ReachMin       float32       `yaml:"reach_min"`
	ReachMax       float32       `yaml:"reach_max"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	InboundBuffer  int           `yaml:"inbound_buffer"`
	OutboundBuffer int           `yaml:"outbound_buffer"`
}

type MeshConfig struct {
	Enabled bool `yaml:"enabled"`
	Workers int  `yaml:"workers"` // 0 - число ядер
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто - шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:           1,
			CacheChunks:    4096,
			RenderRadius:   4,
			ReachMin:       0,
			ReachMax:       8,
			TickInterval:   50 * time.Millisecond,
			InboundBuffer:  256,
			OutboundBuffer: 1024,
		},
		Mesh: MeshConfig{Enabled: true},
		EventBus: EventBusConfig{
			Stream:    "WORLD",
			Retention: 24,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "voxelworld",
		},
		Logging: LoggingConfig{
			Dir:          "logs",
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
		},
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.World.RenderRadius < 0 {
		return fmt.Errorf("world.render_radius: отрицательный радиус %d", c.World.RenderRadius)
	}
	if c.World.ReachMax <= c.World.ReachMin {
		return fmt.Errorf("world.reach: пустой диапазон [%g, %g)", c.World.ReachMin, c.World.ReachMax)
	}
	if c.World.TickInterval <= 0 {
		return fmt.Errorf("world.tick_interval должен быть положительным")
	}
	if c.World.CacheChunks < 0 {
		return fmt.Errorf("world.cache_chunks: отрицательный размер %d", c.World.CacheChunks)
	}
	return nil
}

// Переменные окружения
const (
	EnvConfig      = "VOXEL_CONFIG"
	EnvRESTPort    = "VOXEL_REST_PORT"
	EnvMetricsPort = "VOXEL_METRICS_PORT"
)

const (
	defaultRESTPort    = 8088
	defaultMetricsPort = 2112
)

// GetRESTPort порт REST API: rest_port, затем VOXEL_REST_PORT, затем 8088
func (s *ServerConfig) GetRESTPort() int {
	return resolvePort(s.RESTPort, EnvRESTPort, defaultRESTPort)
}

// GetMetricsPort порт /metrics: metrics_port, затем VOXEL_METRICS_PORT, затем 2112
func (s *ServerConfig) GetMetricsPort() int {
	return resolvePort(s.MetricsPort, EnvMetricsPort, defaultMetricsPort)
}

func resolvePort(configured int, env string, fallback int) int {
	if configured > 0 {
		return configured
	}
	if port, err := strconv.Atoi(os.Getenv(env)); err == nil && port > 0 {
		return port
	}
	return fallback
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Пустой path берётся из VOXEL_CONFIG, без него возвращается ErrNoConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		if path = os.Getenv(EnvConfig); path == "" {
			return nil, ErrNoConfig
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
