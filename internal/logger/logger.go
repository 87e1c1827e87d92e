package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/term"
)

// Logger represents the logging interface
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)

	With(fields ...Field) Logger
	Named(name string) Logger

	Sync() error
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Environment string `yaml:"environment"`
}

// logger implements the Logger interface using zap
type logger struct {
	zap *zap.Logger
}

var levelColors = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel:  color.New(color.FgCyan),
	zapcore.InfoLevel:   color.New(color.FgGreen),
	zapcore.WarnLevel:   color.New(color.FgYellow),
	zapcore.ErrorLevel:  color.New(color.FgRed),
	zapcore.DPanicLevel: color.New(color.FgMagenta),
	zapcore.PanicLevel:  color.New(color.FgMagenta),
	zapcore.FatalLevel:  color.New(color.FgMagenta),
}

// NewLogger creates a new logger with the given configuration.
//
// Format "json" or environment "production" select zap's production JSON
// output, "console" selects colored development output and "auto" (or empty)
// picks console output only when stdout is a terminal.
func NewLogger(config LoggingConfig) Logger {
	level := ParseLevel(config.Level)

	if useJSON(config) {
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		zapLogger, err := zapConfig.Build(zap.AddCallerSkip(1))
		if err != nil {
			return NewNoopLogger()
		}
		return &logger{zap: zapLogger}
	}

	return &logger{zap: createDevelopmentLogger(level)}
}

func useJSON(config LoggingConfig) bool {
	if config.Environment == "production" {
		return true
	}
	switch strings.ToLower(config.Format) {
	case "json":
		return true
	case "console":
		return false
	default:
		return !term.IsTerminal(int(os.Stdout.Fd()))
	}
}

// ParseLevel converts a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewDevelopmentLogger creates a development logger with colors
func NewDevelopmentLogger() Logger {
	return &logger{zap: createDevelopmentLogger(zapcore.DebugLevel)}
}

// NewProductionLogger creates a production logger
func NewProductionLogger() Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zapLogger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return NewNoopLogger()
	}
	return &logger{zap: zapLogger}
}

// NewNoopLogger creates a logger that does nothing.
func NewNoopLogger() Logger {
	return &logger{zap: zap.NewNop()}
}

// NewTestLogger creates a logger that records entries at or above level for
// assertions in tests.
func NewTestLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &logger{zap: zap.New(core)}, logs
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	return &logger{zap: z}
}

func createDevelopmentLogger(level zapcore.Level) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    colorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	c, ok := levelColors[level]
	if !ok {
		enc.AppendString(level.CapitalString())
		return
	}
	enc.AppendString(c.Sprint(level.CapitalString()))
}

func (l *logger) Debug(msg string, fields ...Field) {
	l.zap.Debug(msg, fieldsToZap(fields)...)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.zap.Info(msg, fieldsToZap(fields)...)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.zap.Warn(msg, fieldsToZap(fields)...)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.zap.Error(msg, fieldsToZap(fields)...)
}

func (l *logger) Debugf(template string, args ...any) {
	l.zap.Debug(fmt.Sprintf(template, args...))
}

func (l *logger) Infof(template string, args ...any) {
	l.zap.Info(fmt.Sprintf(template, args...))
}

func (l *logger) Warnf(template string, args ...any) {
	l.zap.Warn(fmt.Sprintf(template, args...))
}

func (l *logger) Errorf(template string, args ...any) {
	l.zap.Error(fmt.Sprintf(template, args...))
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(fieldsToZap(fields)...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Sync() error {
	return l.zap.Sync()
}
