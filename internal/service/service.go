package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"echobot/internal/repository"
	"echobot/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	logger     *zap.Logger
	repository repository.Repository
	now        func() time.Time
}

func NewService(logger *zap.Logger, repo repository.Repository) *Service {
	return &Service{
		logger:     logger,
		repository: repo,
		now:        time.Now,
	}
}

// AddMember puts member on the roster of its chat. A member already known
// keeps its id and creation time.
func (s *Service) AddMember(ctx context.Context, member *types.Member) (*types.Member, error) {
	if member.ChatID == 0 || member.TelegramID <= types.TELEGRAM_ID_EMPTY {
		return nil, fmt.Errorf("missing identifiers to add member")
	}

	existing, err := s.repository.GetMember(ctx, member.ChatID, member.TelegramID)
	if err == nil {
		member.MemberID = existing.MemberID
		member.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, repository.ErrMemberNotFound) {
		return nil, err
	} else {
		memberID, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		member.MemberID = memberID
		member.CreatedAt = s.now()
	}

	if err := s.repository.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember drops a member from a chat roster. Unknown members are not an error.
func (s *Service) RemoveMember(ctx context.Context, chatID, telegramID int64) error {
	if chatID == 0 || telegramID <= types.TELEGRAM_ID_EMPTY {
		return fmt.Errorf("missing identifiers to remove member")
	}

	err := s.repository.RemoveMember(ctx, chatID, telegramID)
	if errors.Is(err, repository.ErrMemberNotFound) {
		s.logger.Debug("member was not on the roster", zap.Int64("chat_id", chatID), zap.Int64("telegram_id", telegramID))
		return nil
	}
	return err
}

// ListMembers returns the roster of a chat, oldest member first.
func (s *Service) ListMembers(ctx context.Context, chatID int64) ([]*types.Member, error) {
	return s.repository.ListMembers(ctx, chatID)
}
