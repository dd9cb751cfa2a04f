// Package telemetry provides structured logging for mirrorsyncd using
// zap, grounded on the teacher's internal/logger package. It is ambient
// stack carried regardless of spec.md's Non-goals: those exclude
// authentication/session/persistence features, not the logging every
// component in this module uses to report what it did.
package telemetry

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.Logger
	once   sync.Once
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Development puts zap in development mode (DPanic-level logs panic);
	// the console vs JSON choice is JSONOutput's.
	Development bool
	// JSONOutput enables JSON output for log aggregation.
	JSONOutput bool
}

// DefaultConfig returns production defaults: info level, JSON output.
func DefaultConfig() Config {
	return Config{Level: "info", JSONOutput: true}
}

// DevelopmentConfig returns defaults suited to a local demo run: debug
// level, human-readable console output.
func DevelopmentConfig() Config {
	return Config{Level: "debug", Development: true}
}

// Init initializes the global logger. Safe to call multiple times; only
// the first call takes effect.
func Init(cfg Config) {
	once.Do(func() {
		global = newLogger(cfg)
	})
}

func newLogger(cfg Config) *zap.Logger {
	level := zapcore.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.JSONOutput {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...)
}

// L returns the global logger, initializing it with DefaultConfig if
// Init hasn't been called yet.
func L() *zap.Logger {
	if global == nil {
		Init(DefaultConfig())
	}
	return global
}

// Sync flushes any buffered log entries.
func Sync() error {
	if global != nil {
		return global.Sync()
	}
	return nil
}

// With returns a logger annotated with the given fields.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}
