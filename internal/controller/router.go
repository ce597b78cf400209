package controller

import (
	"echobot/config"
	"echobot/internal/controller/telegram"
	"echobot/internal/pipeline"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HandlersParams collects every handler descriptor provided to the app.
type HandlersParams struct {
	fx.In

	Descriptors []pipeline.Descriptor `group:"handlers"`
}

// NewRegistry registers every provided handler. Duplicate names fail startup.
func NewRegistry(p HandlersParams, logger *zap.Logger) (*pipeline.Registry, error) {
	r := pipeline.NewRegistry()
	if err := r.RegisterAll(p.Descriptors...); err != nil {
		return nil, err
	}
	logger.Info("handlers registered", zap.Strings("names", r.Names()))
	return r, nil
}

// ConfigureBot lays out the bot's pipeline. Order matters: the first
// matching Map ends the dispatch.
func ConfigureBot(b *pipeline.Builder) *pipeline.Builder {
	return b.
		UseHandler(telegram.ExceptionHandler).
		UseWhen(pipeline.IsWebhookSource, func(branch *pipeline.Builder) {
			branch.UseHandler(telegram.WebhookLogger)
		}).
		Map(pipeline.KindCallbackQuery, func(branch *pipeline.Builder) {
			branch.UseHandler(telegram.CallbackQueryHandler)
		}).
		UseWhen(pipeline.NewTextMessage, func(branch *pipeline.Builder) {
			branch.UseHandler(telegram.TextEchoer)
		}).
		UseCommandHandler("ping", telegram.PingCommand).
		UseCommandHandler("start", telegram.StartCommand).
		MapWhen(pipeline.StickerMessage, func(branch *pipeline.Builder) {
			branch.UseHandler(telegram.StickerHandler)
		}).
		MapWhen(pipeline.LocationMessage, func(branch *pipeline.Builder) {
			branch.UseHandler(telegram.WeatherReporter)
		}).
		UseWhen(pipeline.MembersChanged, func(branch *pipeline.Builder) {
			branch.UseHandler(telegram.UpdateMembersList)
		})
}

// NewPipeline builds the bot's pipeline against the registry.
func NewPipeline(config *config.Config, registry *pipeline.Registry, logger *zap.Logger) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder(
		pipeline.WithRegistry(registry),
		pipeline.WithCommandPrefix(config.Bot.CommandPrefix),
		pipeline.WithBotUsername(config.Bot.Username),
	)
	p, err := ConfigureBot(b).Build()
	if err != nil {
		return nil, err
	}
	logger.Debug("pipeline built", zap.String("layout", p.Describe()))
	return p, nil
}

func NewDispatcher(p *pipeline.Pipeline, client BotClient, logger *zap.Logger) *pipeline.Dispatcher {
	return pipeline.NewDispatcher(p,
		pipeline.WithLogger(logger),
		pipeline.WithSender(client),
	)
}
