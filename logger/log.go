package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// Init initializes the global logger. Production builds get JSON output,
// everything else gets the human-readable development encoder.
func Init() {
	env := os.Getenv("APP_ENV")
	var err error
	if env == "production" {
		Logger, err = zap.NewProduction()
	} else {
		Logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
}

// Close flushes buffered log entries.
func Close() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func L() *zap.Logger {
	if Logger == nil {
		Init()
	}
	return Logger
}

// Global logging methods to avoid `logger.Logger` repetition

func Info(msg string, fields ...zapcore.Field) {
	L().Info(msg, fields...)
}

func Warn(msg string, fields ...zapcore.Field) {
	L().Warn(msg, fields...)
}

func Error(msg string, fields ...zapcore.Field) {
	L().Error(msg, fields...)
}

func Debug(msg string, fields ...zapcore.Field) {
	L().Debug(msg, fields...)
}

func Fatal(msg string, fields ...zapcore.Field) {
	L().Fatal(msg, fields...)
}
