// Package logger provides a configured zap logger for MetroFlow.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogFormat selects the encoder: "console" or "json". Unset auto-detects
// a terminal.
const EnvLogFormat = "METROFLOW_LOG_FORMAT"

var (
	// Log is the global logger instance
	Log = zap.NewNop()

	// helper skips one frame so the package-level functions report their caller.
	helper = zap.NewNop()
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init initializes the global logger with the specified log level.
// Valid levels: debug, info, warn, error
// Set development=true for console-friendly output, false for JSON.
func Init(lvl string, development bool) error {
	level.SetLevel(parseLevel(lvl))

	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = level

	logger, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}

	Log = logger
	helper = logger.WithOptions(zap.AddCallerSkip(1))
	return nil
}

// InitDefault initializes the logger with default settings (info level,
// format from the environment).
func InitDefault() {
	if err := Init("info", IsDevelopment()); err != nil {
		Log = zap.NewExample()
		helper = Log
	}
}

// SetLevel changes the level of every logger derived from Log.
func SetLevel(lvl string) {
	level.SetLevel(parseLevel(lvl))
}

// parseLevel converts a string log level to zapcore.Level
func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(lvl) {
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

// Sync flushes any buffered log entries.
// Should be called before the application exits.
func Sync() {
	_ = Log.Sync()
}

// IsDevelopment returns true if METROFLOW_LOG_FORMAT=console, false if it is
// json, and otherwise whether stdout is a terminal.
func IsDevelopment() bool {
	switch os.Getenv(EnvLogFormat) {
	case "console":
		return true
	case "json":
		return false
	}
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	helper.Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	helper.Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	helper.Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	helper.Error(msg, fields...)
}

// Named creates a named child logger
func Named(name string) *zap.Logger {
	return Log.Named(name)
}
