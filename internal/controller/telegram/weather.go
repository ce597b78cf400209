package telegram

import (
	"fmt"

	"echobot/internal/pipeline"
	"echobot/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *TelegramBot) ReportWeather(c *pipeline.Context) (pipeline.Result, error) {
	m := c.Update().Message()
	if m == nil || m.Location == nil {
		return pipeline.Continue, nil
	}

	location := types.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	weather, err := b.weather.GetWeather(c.Ctx(), location)
	if err != nil {
		return pipeline.Continue, fmt.Errorf("get weather for %.4f, %.4f: %w", location.Latitude, location.Longitude, err)
	}

	messageText := fmt.Sprintf(
		"🌍 *Weather Report*\n\n"+
			"📍 *Place:* %s\n"+
			"🌡️ *Temperature:* %.1f°C\n"+
			"💬 %s\n"+
			"📅 *Observed At:* %s\n",
		weather.Place,
		weather.Temperature,
		weather.Summary,
		weather.ObservedAt.Format("2006-01-02 15:04:05"),
	)

	msg := tgbotapi.NewMessage(m.Chat.ID, messageText)
	msg.ReplyToMessageID = m.MessageID
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(c, msg)
	return pipeline.Continue, nil
}
