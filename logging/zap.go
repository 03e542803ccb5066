package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter wraps a sugared zap logger to implement the Logger interface.
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter creates a Logger from *zap.Logger. A nil logger yields zap.NewNop.
func NewZapAdapter(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAdapter{sugar: logger.Sugar()}
}

// Debug logs a debug message.
func (z *ZapAdapter) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }

// Info logs an informational message.
func (z *ZapAdapter) Info(msg string, args ...any) { z.sugar.Infow(msg, args...) }

// Warn logs a warning message.
func (z *ZapAdapter) Warn(msg string, args ...any) { z.sugar.Warnw(msg, args...) }

// Error logs an error message.
func (z *ZapAdapter) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

// Sync flushes any buffered log entries.
func (z *ZapAdapter) Sync() error { return z.sugar.Sync() }

// NewZapLogger builds a zap backed Logger writing to stderr. Format "text"
// selects the console encoder, anything else JSON.
func NewZapLogger(level LogLevel, format string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "text" {
		cfg.Encoding = "console"
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return NewZapAdapter(logger), nil
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
