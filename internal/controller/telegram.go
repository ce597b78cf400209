package controller

import (
	"echobot/config"
	"echobot/internal/pipeline"
	"echobot/internal/source"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// BotClient is the part of the Bot API the bot talks to.
// *tgbotapi.BotAPI satisfies it.
type BotClient interface {
	pipeline.Sender
	source.WebhookClient
}

// NewBotAPI connects to Telegram with the configured token.
func NewBotAPI(config *config.Config, logger *zap.Logger) (BotClient, error) {
	bot, err := tgbotapi.NewBotAPI(config.Bot.Token)
	if err != nil {
		return nil, err
	}

	logger.Info("Connected", zap.String("Bot Name", bot.Self.FirstName), zap.String("username", bot.Self.UserName))

	if config.Bot.Username != "" && config.Bot.Username != bot.Self.UserName {
		logger.Warn("configured username differs from the bot's",
			zap.String("configured", config.Bot.Username),
			zap.String("actual", bot.Self.UserName),
		)
	}

	bot.Debug = config.Bot.Debug
	return bot, nil
}
