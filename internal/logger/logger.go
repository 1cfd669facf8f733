package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures NewLogger. The zero value is a development console logger at info.
type Options struct {
	Env   string
	Level string
	File  string
}

func encoderConfig(levelEncoder zapcore.LevelEncoder, stacktraceKey string) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  stacktraceKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// ParseLevel maps LOG_LEVEL values to a zap level. Unknown values fall back to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger creates a new logger based on environment
func NewLogger(opts Options) (*zap.Logger, error) {
	env := strings.ToLower(opts.Env)
	if env == "" {
		env = "development"
	}

	level := zap.NewAtomicLevelAt(ParseLevel(opts.Level))

	// Console output
	var consoleEncoder zapcore.Encoder
	if env == "production" {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig(zapcore.LowercaseLevelEncoder, ""))
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig(zapcore.CapitalColorLevelEncoder, ""))
	}
	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)}

	// File output if LOG_FILE is set
	if opts.File != "" {
		lumberjackLogger := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		fileEncoder := zapcore.NewJSONEncoder(encoderConfig(zapcore.LowercaseLevelEncoder, "stacktrace"))
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(lumberjackLogger), level))
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// WithContext creates a logger with context fields
func WithContext(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}

// LogDuration performance logging helper
func LogDuration(logger *zap.Logger, operation string, duration time.Duration, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", operation), zap.Int64("duration_ms", duration.Milliseconds()))
	logger.Info("operation completed", fields...)
}
