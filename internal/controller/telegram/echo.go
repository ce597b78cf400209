package telegram

import (
	"strings"

	"echobot/internal/pipeline"
)

// HandleTextEcho repeats plain text back to the chat. Commands, either
// Telegram's own or ones using the configured prefix, pass through
// untouched so later command handlers can answer them.
func (b *TelegramBot) HandleTextEcho(c *pipeline.Context) (pipeline.Result, error) {
	m := c.Update().Message()
	if m == nil || m.Text == "" || m.IsCommand() || strings.HasPrefix(m.Text, b.config.CommandPrefix) {
		return pipeline.Continue, nil
	}

	b.reply(c, m.Text)
	return pipeline.Continue, nil
}
