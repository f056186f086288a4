package logging

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	disabled atomic.Bool
	logger   atomic.Pointer[zap.Logger]
)

func init() {
	l, err := build("info", false)
	if err != nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// Init replaces the process logger. level is debug, info, warn or error;
// json selects production encoding, otherwise a console encoder is used.
func Init(level string, json bool) (*zap.Logger, error) {
	l, err := build(level, json)
	if err != nil {
		return nil, err
	}
	logger.Store(l)
	return l, nil
}

func build(level string, json bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	if !json {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

// L returns the process logger for structured fields.
func L() *zap.Logger {
	if disabled.Load() {
		return zap.NewNop()
	}
	return logger.Load()
}

// Named returns a child logger tagged with a component name.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered entries.
func Sync() {
	_ = logger.Load().Sync()
}

// Disable turns off all logging
func Disable() {
	disabled.Store(true)
}

// Enable turns logging back on
func Enable() {
	disabled.Store(false)
}

func sugar() *zap.SugaredLogger {
	return L().WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Info logs an info message
func Info(v ...any) {
	sugar().Info(v...)
}

// Infof logs a formatted info message
func Infof(format string, v ...any) {
	sugar().Infof(format, v...)
}

// Error logs an error message
func Error(v ...any) {
	sugar().Error(v...)
}

// Errorf logs a formatted error message
func Errorf(format string, v ...any) {
	sugar().Errorf(format, v...)
}

// Warn logs a warning message
func Warn(v ...any) {
	sugar().Warn(v...)
}

// Warnf logs a formatted warning message
func Warnf(format string, v ...any) {
	sugar().Warnf(format, v...)
}

// Debug logs a debug message
func Debug(v ...any) {
	sugar().Debug(v...)
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) {
	sugar().Debugf(format, v...)
}
