package telegram

import (
	"fmt"
	"strings"

	"echobot/internal/pipeline"
)

func (b *TelegramBot) Ping(c *pipeline.Context) (pipeline.Result, error) {
	b.reply(c, "pong")
	return pipeline.Stop, nil
}

func (b *TelegramBot) Start(c *pipeline.Context) (pipeline.Result, error) {
	name := b.getUserName(c.Update().Sender())
	if name == "" {
		name = "there"
	}

	messageText := fmt.Sprintf(
		"👋 Hello %s!\n\n"+
			"I echo your messages, report the weather for shared locations and send your stickers back.\n\n"+
			"📝 Commands\n%s",
		name,
		strings.Join(Commands, "\n"),
	)
	b.reply(c, messageText)
	return pipeline.Stop, nil
}
