package telegram

import (
	"context"
	"errors"

	"echobot/config"
	"echobot/internal/pipeline"
	"echobot/internal/service"
	"echobot/types"

	"go.uber.org/zap"
)

// Roster keeps track of who is in each chat. *service.Service satisfies it.
type Roster interface {
	AddMember(ctx context.Context, member *types.Member) (*types.Member, error)
	RemoveMember(ctx context.Context, chatID, telegramID int64) error
	ListMembers(ctx context.Context, chatID int64) ([]*types.Member, error)
}

type TelegramBot struct {
	logger  *zap.Logger
	config  *config.Bot
	roster  Roster
	weather service.WeatherService
}

func NewTelegramBot(config *config.Config, logger *zap.Logger, s *service.Service, w service.WeatherService) *TelegramBot {
	return &TelegramBot{
		logger:  logger,
		config:  &config.Bot,
		roster:  s,
		weather: w,
	}
}

// HandleException replies to the chat when a later handler of the same
// update fails.
func (b *TelegramBot) HandleException(c *pipeline.Context) (pipeline.Result, error) {
	c.OnFault(func(err error) {
		b.logger.Error("error while handling update",
			zap.String("trace_id", c.TraceID().String()),
			zap.Int("update_id", c.Update().ID),
			zap.Error(err),
		)

		if err := c.Reply("⚠️ Something went wrong"); err != nil && !errors.Is(err, pipeline.ErrNoChat) {
			b.logger.Error("error while sending message", zap.Error(err))
		}
	})
	return pipeline.Continue, nil
}

func (b *TelegramBot) HandleWebhookLog(c *pipeline.Context) (pipeline.Result, error) {
	u := c.Update()
	b.logger.Info("Received update via webhook",
		zap.Int("update_id", u.ID),
		zap.String("kind", string(u.Kind)),
		zap.Time("received_at", u.ReceivedAt),
	)
	return pipeline.Continue, nil
}
