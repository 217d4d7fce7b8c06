package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// traceLevel уровень zap ниже Debug
const traceLevel = zapcore.DebugLevel - 1

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации
func ParseLevel(s string) (LogLevel, error) {
	for l := TRACE; l <= ERROR; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case TRACE:
		return traceLevel
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == traceLevel {
		enc.AppendString("TRACE")
		return
	}
	zapcore.CapitalLevelEncoder(l, enc)
}

// Logger логгер компонента: консоль и отдельный файл
type Logger struct {
	component    string
	sugar        *zap.SugaredLogger
	consoleLevel zap.AtomicLevel
	fileLevel    zap.AtomicLevel
	file         *os.File
}

// Options настройки создаваемых логгеров
type Options struct {
	Dir          string
	ConsoleLevel LogLevel
	FileLevel    LogLevel
}

// DefaultOptions консоль с INFO, файл со всеми уровнями
func DefaultOptions() Options {
	return Options{Dir: "logs", ConsoleLevel: INFO, FileLevel: TRACE}
}

// NewLogger создаёт логгер компонента с файлом <dir>/<component>_<время>.log
func NewLogger(component string, opts Options) (*Logger, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encoderConfig.EncodeLevel = encodeLevel
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	l := &Logger{
		component:    component,
		consoleLevel: zap.NewAtomicLevelAt(opts.ConsoleLevel.zapLevel()),
		fileLevel:    zap.NewAtomicLevelAt(opts.FileLevel.zapLevel()),
		file:         file,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), l.consoleLevel),
		zapcore.NewCore(encoder, zapcore.AddSync(file), l.fileLevel),
	)
	l.sugar = zap.New(core).Named(component).Sugar()
	return l, nil
}

// nopLogger ничего не пишет; используется до инициализации
func nopLogger(component string) *Logger {
	return &Logger{
		component:    component,
		sugar:        zap.NewNop().Sugar(),
		consoleLevel: zap.NewAtomicLevelAt(zapcore.FatalLevel),
		fileLevel:    zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

// Component имя компонента
func (l *Logger) Component() string {
	return l.component
}

// Zap возвращает структурный логгер для полей zap.Field
func (l *Logger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

// SetLevels меняет уровни консоли и файла
func (l *Logger) SetLevels(console, file LogLevel) {
	l.consoleLevel.SetLevel(console.zapLevel())
	l.fileLevel.SetLevel(file.zapLevel())
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) {
	if ce := l.sugar.Desugar().Check(traceLevel, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Close сбрасывает буферы и закрывает файл
func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Глобальный логгер пакета
var defaultLogger = nopLogger("default")

// InitDefaultLogger включает запись логов и создаёт логгер по умолчанию
func InitDefaultLogger(component string, opts Options) error {
	manager := GetLoggerManager()
	manager.Enable(opts)
	logger, err := manager.GetLogger(component)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// CloseDefaultLogger закрывает все логгеры
func CloseDefaultLogger() {
	_ = GetLoggerManager().CloseAll()
	defaultLogger = nopLogger("default")
}

// Trace логирует сообщение уровня TRACE
func Trace(format string, args ...interface{}) {
	defaultLogger.Trace(format, args...)
}

// Debug логирует сообщение уровня DEBUG
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

// Info логирует сообщение уровня INFO
func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

// Warn логирует сообщение уровня WARN
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Error логирует сообщение уровня ERROR
func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}
