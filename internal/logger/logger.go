package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger.
// level: "debug", "info", "warn", "error" (default "info")
// format: "json" or "console" (default "json")
// Output goes to stderr so stdout stays free for command results.
func NewLogger(level, format, serviceName string) (*zap.Logger, error) {
	var config zap.Config
	if strings.EqualFold(format, "console") {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	base, err := config.Build()
	if err != nil {
		return nil, err
	}

	if serviceName != "" {
		base = base.With(zap.String("service_name", serviceName))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		base = base.With(zap.String("hostname", hostname))
	}

	return base, nil
}

// ParseLevel maps a level name onto a zap level, defaulting to info.
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
