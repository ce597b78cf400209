package telegram

import (
	"errors"
	"fmt"
	"strings"

	"echobot/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// reply sends text to the update's chat. Send failures are logged, not returned.
func (b *TelegramBot) reply(c *pipeline.Context, text string) {
	if err := c.Reply(text); err != nil && !errors.Is(err, pipeline.ErrNoChat) {
		b.logger.Error("error while sending message", zap.Error(err))
	}
}

func (b *TelegramBot) send(c *pipeline.Context, msg tgbotapi.Chattable) {
	if _, err := c.Send(msg); err != nil {
		b.logger.Error("error while sending message", zap.Error(err))
	}
}

func (b *TelegramBot) getUserName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}

	name := strings.TrimSpace(fmt.Sprintf("%s %s", user.FirstName, user.LastName))
	if name != "" {
		return name
	}

	if user.UserName != "" {
		return "@" + user.UserName
	}

	return fmt.Sprintf("%d", user.ID)
}
