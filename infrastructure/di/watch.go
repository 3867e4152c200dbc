package di

import (
	"marketplace-backend/infrastructure/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WatchConfig follows the container's YAML overlay and applies log level
// changes without a restart. It returns nil when no file is configured.
func WatchConfig(c *Container) (*config.Watcher, error) {
	if c.Config.ConfigFile == "" {
		return nil, nil
	}

	w, err := config.NewWatcher(c.Config.ConfigFile, c.Logger)
	if err != nil {
		return nil, err
	}
	w.OnChange(func(next *config.Config) {
		applyLogLevel(c.LogLevel, next.LogLevel, c.Logger)
	})
	w.Start()
	return w, nil
}

func applyLogLevel(level zap.AtomicLevel, value string, logger *zap.Logger) {
	if value == "" {
		return
	}
	parsed, err := zapcore.ParseLevel(value)
	if err != nil {
		logger.Warn("Ignoring invalid log level", zap.String("logLevel", value), zap.Error(err))
		return
	}
	if parsed == level.Level() {
		return
	}
	level.SetLevel(parsed)
	logger.Info("Log level changed", zap.String("logLevel", parsed.String()))
}
