package controller

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"echobot/config"
	"echobot/internal/pipeline"
	"echobot/internal/source"

	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type controller struct {
	logger  *zap.Logger
	config  *config.Config
	client  BotClient
	handler source.UpdateHandler

	mux      *http.ServeMux
	server   *http.Server
	listener net.Listener

	cancel context.CancelFunc
	done   chan struct{}
}

func NewController(config *config.Config, logger *zap.Logger, client BotClient, dispatcher *pipeline.Dispatcher) *controller {
	return &controller{
		logger:  logger,
		config:  config,
		client:  client,
		handler: dispatcher,
		mux:     http.NewServeMux(),
	}
}

func Start(lc fx.Lifecycle, c *controller) {
	log := c.logger.Sugar()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := c.StartTelegramBot(); err != nil {
				return err
			}
			if err := c.StartServer(); err != nil {
				// OnStop is not run for a hook whose OnStart failed.
				return multierr.Append(err, c.stopPolling(ctx))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("Shutting down bot")
			return c.Stop(ctx)
		},
	})
}

// StartTelegramBot starts the update source picked by bot.mode.
func (c *controller) StartTelegramBot() error {
	bot := c.config.Bot
	if !bot.IsEnabled() {
		c.logger.Info("bot disabled, not receiving updates", zap.String("bot", bot.Name))
		return nil
	}

	switch bot.Mode {
	case config.ModePolling:
		return c.startPolling()
	case config.ModeWebhook:
		return c.startWebhook()
	default:
		return errors.New("unknown bot mode " + bot.Mode)
	}
}

func (c *controller) startPolling() error {
	bot := c.config.Bot

	// getUpdates is refused while a webhook is set.
	if err := source.DisableWebhook(c.client, c.logger); err != nil {
		c.logger.Warn("could not remove webhook, polling may fail until it is gone", zap.Error(err))
	}

	poller := &source.Poller{
		Client:      c.client,
		Handler:     c.handler,
		Logger:      c.logger.Named("poller"),
		Timeout:     bot.PollTimeout,
		StartDelay:  bot.PollStartDelay.Std(),
		Concurrency: bot.PollConcurrency,
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		if err := poller.Run(ctx); err != nil {
			c.logger.Error("poller exited", zap.Error(err))
		}
	}()

	c.logger.Info("receiving updates by long polling", zap.Duration("start_delay", bot.PollStartDelay.Std()))
	return nil
}

func (c *controller) startWebhook() error {
	bot := c.config.Bot

	link, err := source.WebhookURL(bot.BaseURL, bot.WebhookPath)
	if err != nil {
		return err
	}
	if err := source.EnsureWebhook(c.client, link, bot.SecretToken, c.logger); err != nil {
		return err
	}

	c.mux.Handle(bot.WebhookPath, &source.Webhook{
		Handler:     c.handler,
		Logger:      c.logger.Named("webhook"),
		SecretToken: bot.SecretToken,
	})

	c.logger.Info("receiving updates by webhook", zap.String("url", link))
	return nil
}

// StartServer serves the webhook, if any, and the root page.
func (c *controller) StartServer() error {
	c.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Hello World!"))
	})

	ln, err := net.Listen("tcp", c.config.Server.Listen)
	if err != nil {
		return err
	}
	c.listener = ln
	c.server = &http.Server{
		Handler:           c.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("http server stopped", zap.Error(err))
		}
	}()

	c.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// stopPolling cancels the poller and waits for the current batch, or ctx.
func (c *controller) stopPolling(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends polling, letting the current batch finish, then drains the
// http server.
func (c *controller) Stop(ctx context.Context) error {
	if err := c.stopPolling(ctx); err != nil {
		return err
	}

	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}
