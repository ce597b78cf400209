package telegram

import (
	"echobot/internal/pipeline"
)

// Names the handlers are registered under.
const (
	ExceptionHandler     = "ExceptionHandler"
	WebhookLogger        = "WebhookLogger"
	CallbackQueryHandler = "CallbackQueryHandler"
	TextEchoer           = "TextEchoer"
	PingCommand          = "PingCommand"
	StartCommand         = "StartCommand"
	StickerHandler       = "StickerHandler"
	WeatherReporter      = "WeatherReporter"
	UpdateMembersList    = "UpdateMembersList"
)

// Commands lists the commands the bot answers, as shown by /start.
var Commands = []string{"/start", "/ping"}

func (b *TelegramBot) register(name string, h pipeline.HandlerFunc) pipeline.Descriptor {
	return pipeline.Descriptor{Name: name, Factory: pipeline.Instance(h)}
}

// Handlers returns the descriptors of every handler the bot offers.
func (b *TelegramBot) Handlers() []pipeline.Descriptor {
	return []pipeline.Descriptor{
		b.register(ExceptionHandler, b.HandleException),
		b.register(WebhookLogger, b.HandleWebhookLog),
		b.register(CallbackQueryHandler, b.HandleCallbackQuery),
		b.register(TextEchoer, b.HandleTextEcho),
		b.register(PingCommand, b.Ping),
		b.register(StartCommand, b.Start),
		b.register(StickerHandler, b.HandleSticker),
		b.register(WeatherReporter, b.ReportWeather),
		b.register(UpdateMembersList, b.UpdateMembers),
	}
}
