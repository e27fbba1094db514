package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry
const ServiceName = "recipebox"

// ParseLevel maps a config level name to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

// New builds the process logger. format is "json" or "console". Logs go to
// stderr so stdout stays free for command output and the MCP transport.
func New(level, format string) (*zap.Logger, error) {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter builds a logger writing to w
func NewWithWriter(level, format string, w io.Writer) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	switch strings.ToLower(format) {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	case "console":
		cfg := encoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), ParseLevel(level))
	return zap.New(core,
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", ServiceName)),
	), nil
}
