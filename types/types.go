package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	TELEGRAM_ID_EMPTY = 0
)

// Member is someone the bot has seen join a chat.
type Member struct {
	MemberID     uuid.UUID
	ChatID       int64
	TelegramID   int64
	TelegramName string
	Username     string
	IsBot        bool
	CreatedAt    time.Time
}

// Location is a point shared in a chat.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Weather is the forecast reported back for a location.
type Weather struct {
	Location    Location
	Place       string
	Summary     string
	Temperature float64
	ObservedAt  time.Time
}
