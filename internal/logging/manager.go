package logging

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownComponent у компонента ещё нет логгера
var ErrUnknownComponent = errors.New("logging: unknown component")

// LoggerManager кэширует логгеры компонентов.
// До Enable выдаёт заглушки и ничего не кэширует.
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	enabled bool
	opts    Options
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает менеджер процесса
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers: make(map[string]*Logger),
			opts:    DefaultOptions(),
		}
	})
	return globalManager
}

// Enable включает запись для логгеров, созданных после вызова
func (lm *LoggerManager) Enable(opts Options) {
	lm.mu.Lock()
	lm.enabled = true
	lm.opts = opts
	lm.mu.Unlock()
}

// GetLogger возвращает логгер компонента; первый вызов после Enable создаёт файл
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}
	if !lm.enabled {
		return nopLogger(component), nil
	}

	logger, err := NewLogger(component, lm.opts)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger как GetLogger, но при ошибке отдаёт заглушку
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		defaultLogger.Error("Логгер %s недоступен: %v", component, err)
		return nopLogger(component)
	}
	return logger
}

// CloseAll закрывает файлы и возвращает менеджер в режим заглушек
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", component, err))
		}
	}
	clear(lm.loggers)
	lm.enabled = false
	return errors.Join(errs...)
}

// ListComponents имена компонентов с настоящими логгерами, по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return slices.Sorted(maps.Keys(lm.loggers))
}

// SetLogLevel меняет уровни уже созданного логгера
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.Lock()
	logger, ok := lm.loggers[component]
	lm.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}
	logger.SetLevels(consoleLevel, fileLevel)
	return nil
}

// GetComponentLogger логгер компонента из менеджера процесса
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}
