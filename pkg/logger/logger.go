package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls logger construction
type LoggerConfig struct {
	Debug bool
}

// NewLogger creates a production zap logger.
// With Debug enabled, the development config is used (human-readable output,
// debug level) which is what the CLIs and tests want.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &LoggerConfig{}
	}

	if cfg.Debug {
		devCfg := zap.NewDevelopmentConfig()
		devCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return devCfg.Build()
	}

	prodCfg := zap.NewProductionConfig()
	prodCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return prodCfg.Build()
}

// NewNoopLogger returns a logger that discards everything.
// Useful in tests that don't care about log output.
func NewNoopLogger() *zap.Logger {
	return zap.NewNop()
}
