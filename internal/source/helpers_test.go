package source

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"echobot/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// recordingHandler stands in for the dispatcher.
type recordingHandler struct {
	mu      sync.Mutex
	updates []*pipeline.Update
	outcome pipeline.Outcome
}

func (h *recordingHandler) Dispatch(_ context.Context, u *pipeline.Update) pipeline.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, u)
	return h.outcome
}

func (h *recordingHandler) ids() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]int, 0, len(h.updates))
	for _, u := range h.updates {
		ids = append(ids, u.ID)
	}
	return ids
}

// scriptedClient answers getUpdates calls from a script keyed by call number (1-based).
type scriptedClient struct {
	mu     sync.Mutex
	calls  []tgbotapi.UpdateConfig
	script func(call int, cfg tgbotapi.UpdateConfig) (*tgbotapi.APIResponse, error)
}

func (c *scriptedClient) Request(ch tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	cfg, _ := ch.(tgbotapi.UpdateConfig)
	c.mu.Lock()
	c.calls = append(c.calls, cfg)
	n := len(c.calls)
	c.mu.Unlock()
	return c.script(n, cfg)
}

func (c *scriptedClient) offsets() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.calls))
	for _, cfg := range c.calls {
		out = append(out, cfg.Offset)
	}
	return out
}

func okResponse(result string) *tgbotapi.APIResponse {
	return &tgbotapi.APIResponse{Ok: true, Result: json.RawMessage(result)}
}

// runPoller runs p until it returns, failing the test after a timeout.
func runPoller(t *testing.T, ctx context.Context, p *Poller) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}
}
