package repository

import (
	"context"
	"errors"

	"echobot/types"
)

// ErrMemberNotFound is returned when no roster row matches.
var ErrMemberNotFound = errors.New("member not found")

type Repository interface {
	repositoryMember
	Close() error
}

type repositoryMember interface {
	AddMember(ctx context.Context, member *types.Member) error
	GetMember(ctx context.Context, chatID, telegramID int64) (*types.Member, error)
	ListMembers(ctx context.Context, chatID int64) ([]*types.Member, error)
	RemoveMember(ctx context.Context, chatID, telegramID int64) error
}
