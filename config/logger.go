package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var appLogger *zap.Logger

// InitLogger builds the application logger for the configured environment and level
func InitLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	appLogger = logger
	return logger, nil
}

// GetLogger returns the application logger, or a no-op logger before InitLogger runs
func GetLogger() *zap.Logger {
	if appLogger == nil {
		return zap.NewNop()
	}
	return appLogger
}

// SetLogger sets the application logger (primarily for testing)
func SetLogger(logger *zap.Logger) {
	appLogger = logger
}
