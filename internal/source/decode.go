// Package source feeds Telegram updates into a pipeline dispatcher, either
// by long polling getUpdates or by serving a webhook endpoint.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"echobot/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateHandler consumes decoded updates. *pipeline.Dispatcher satisfies it.
type UpdateHandler interface {
	Dispatch(ctx context.Context, u *pipeline.Update) pipeline.Outcome
}

var (
	errMissingUpdateID = errors.New("update_id is missing")
	errEmptyPayload    = errors.New("payload is empty")
)

// updateHeader peeks at update_id before the full decode.
type updateHeader struct {
	UpdateID *int `json:"update_id"`
}

// Decode turns one raw Telegram update into a pipeline update.
func Decode(raw []byte, src pipeline.Source, receivedAt time.Time) (*pipeline.Update, error) {
	if len(raw) == 0 {
		return nil, &MalformedUpdateError{Err: errEmptyPayload}
	}

	var header updateHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, &MalformedUpdateError{Err: err}
	}
	if header.UpdateID == nil {
		return nil, &MalformedUpdateError{Err: errMissingUpdateID}
	}

	var upd tgbotapi.Update
	if err := json.Unmarshal(raw, &upd); err != nil {
		return nil, &MalformedUpdateError{UpdateID: *header.UpdateID, Err: err}
	}
	return pipeline.NewUpdate(&upd, src, receivedAt), nil
}
