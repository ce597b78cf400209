package logger

import (
	"fmt"

	"echobot/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the production logger, honoring log.level.
func NewLogger(conf *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(conf.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Log.Level, err)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	if conf.Bot.Debug {
		zapConfig.Development = true
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("bot", conf.Bot.Name)), nil
}
