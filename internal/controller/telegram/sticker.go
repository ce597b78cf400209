package telegram

import (
	"echobot/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *TelegramBot) HandleSticker(c *pipeline.Context) (pipeline.Result, error) {
	m := c.Update().Message()
	if m == nil || m.Sticker == nil {
		return pipeline.Continue, nil
	}

	msg := tgbotapi.NewSticker(m.Chat.ID, tgbotapi.FileID(m.Sticker.FileID))
	msg.ReplyToMessageID = m.MessageID
	b.send(c, msg)
	return pipeline.Continue, nil
}
