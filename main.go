package main

import (
	"os"

	"echobot/config"
	"echobot/internal/controller"
	"echobot/internal/controller/telegram"
	"echobot/internal/pipeline"
	"echobot/internal/repository"
	"echobot/internal/service"
	"echobot/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func appOptions(conf *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(conf),
		fx.Provide(
			logger.NewLogger,
			repository.NewSQLite,
			service.NewService,
			fx.Annotate(service.NewStaticWeather, fx.As(new(service.WeatherService))),
			telegram.NewTelegramBot,
			fx.Annotate(botHandlers, fx.ResultTags(`group:"handlers,flatten"`)),
			controller.NewBotAPI,
			controller.NewRegistry,
			controller.NewPipeline,
			controller.NewDispatcher,
			controller.NewController,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Invoke(closeRepository, controller.Start),
	)
}

func botHandlers(b *telegram.TelegramBot) []pipeline.Descriptor {
	return b.Handlers()
}

func closeRepository(lc fx.Lifecycle, repo repository.Repository) {
	lc.Append(fx.StopHook(repo.Close))
}
