package source

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"time"

	"echobot/internal/pipeline"

	"go.uber.org/zap"
)

const (
	// SecretTokenHeader is the header Telegram echoes back when a webhook
	// was registered with a secret token.
	SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

	defaultMaxBodyBytes = 1 << 20
)

// Webhook is the push endpoint. Each request carries one update, which is
// dispatched synchronously before the response is written.
type Webhook struct {
	Handler UpdateHandler
	Logger  *zap.Logger

	// SecretToken, when set, must match the SecretTokenHeader of every request.
	SecretToken string
	// MaxBodyBytes caps the request body (default 1 MiB).
	MaxBodyBytes int64

	now func() time.Time
}

// ServeHTTP answers 200 once the update has been dispatched, whatever the
// handlers did with it. Only a bad method, secret or payload is rejected.
func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.logger()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.SecretToken != "" {
		got := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.SecretToken)) != 1 {
			log.Warn("webhook request with invalid secret token", zap.String("remote_addr", r.RemoteAddr))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes()))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("webhook payload too large", zap.Int64("limit", tooLarge.Limit))
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		log.Warn("failed to read webhook payload", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	u, err := Decode(body, pipeline.SourceWebhook, h.clock())
	if err != nil {
		log.Warn("rejecting malformed webhook update", zap.Error(err))
		http.Error(w, "malformed update", http.StatusBadRequest)
		return
	}

	h.Handler.Dispatch(r.Context(), u)
	w.WriteHeader(http.StatusOK)
}

func (h *Webhook) maxBodyBytes() int64 {
	if h.MaxBodyBytes <= 0 {
		return defaultMaxBodyBytes
	}
	return h.MaxBodyBytes
}

func (h *Webhook) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *Webhook) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.NewNop()
}
