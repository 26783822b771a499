package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a development logger for "development" and "dev", a
// no-op logger for "test" and the production JSON logger otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	switch env {
	case "test":
		return zap.NewNop(), nil
	case "dev", "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
