package telegram

import (
	"fmt"

	"echobot/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *TelegramBot) HandleCallbackQuery(c *pipeline.Context) (pipeline.Result, error) {
	raw := c.Update().Raw
	if raw == nil || raw.CallbackQuery == nil {
		return pipeline.Continue, nil
	}
	cq := raw.CallbackQuery

	sender := c.Sender()
	if sender == nil {
		return pipeline.Continue, pipeline.ErrNoSender
	}
	if _, err := sender.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Error("error answering callback query", zap.String("callback_id", cq.ID), zap.Error(err))
	}

	if cq.Message != nil {
		b.reply(c, fmt.Sprintf("You pressed %s", cq.Data))
	}
	return pipeline.Continue, nil
}
