package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"echobot/config"
	"echobot/internal/controller/telegram"
	"echobot/internal/pipeline"
	"echobot/internal/repository"
	"echobot/internal/service"
	"echobot/internal/source"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// fakeClient stands in for *tgbotapi.BotAPI.
type fakeClient struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	params    []tgbotapi.Params
	webhook   tgbotapi.WebhookInfo
	batches   []string
	pollCalls int
}

func (c *fakeClient) Send(ch tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, ch)
	return tgbotapi.Message{}, nil
}

func (c *fakeClient) Request(ch tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if _, ok := ch.(tgbotapi.UpdateConfig); ok {
		time.Sleep(5 * time.Millisecond)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.pollCalls++
		batch := `[]`
		if len(c.batches) > 0 {
			batch, c.batches = c.batches[0], c.batches[1:]
		}
		return &tgbotapi.APIResponse{Ok: true, Result: json.RawMessage(batch)}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, ch)
	return &tgbotapi.APIResponse{Ok: true, Result: json.RawMessage(`true`)}, nil
}

func (c *fakeClient) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = append(c.params, params)
	return &tgbotapi.APIResponse{Ok: true, Result: json.RawMessage(`true`)}, nil
}

func (c *fakeClient) GetWebhookInfo() (tgbotapi.WebhookInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.webhook, nil
}

func (c *fakeClient) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, ch := range c.sent {
		if msg, ok := ch.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	return &config.Config{
		Name: "echobot",
		Bot: config.Bot{
			Name:            "echobot",
			Token:           "1:test",
			Mode:            mode,
			BaseURL:         "https://bot.example.com",
			WebhookPath:     config.DefaultWebhookPath,
			Username:        "echo_bot",
			CommandPrefix:   config.DefaultPrefix,
			PollTimeout:     1,
			PollConcurrency: 1,
		},
		Server: config.Server{Listen: "127.0.0.1:0"},
		Database: config.Database{
			Type:    "file:",
			Address: filepath.Join(t.TempDir(), "echobot.db"),
			Cache:   "shared",
			MaxConn: 1,
		},
	}
}

// newSampleBot wires the sample bot the way the app does, on a fake client.
func newSampleBot(t *testing.T, conf *config.Config, client BotClient) *pipeline.Dispatcher {
	t.Helper()
	logger := zaptest.NewLogger(t)

	repo, err := repository.NewSQLite(conf, logger)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	bot := telegram.NewTelegramBot(conf, logger, service.NewService(logger, repo), service.NewStaticWeather())
	registry, err := NewRegistry(HandlersParams{Descriptors: bot.Handlers()}, logger)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	p, err := NewPipeline(conf, registry, logger)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return NewDispatcher(p, client, logger)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func newController(t *testing.T, conf *config.Config, client *fakeClient) *controller {
	t.Helper()
	return NewController(conf, zaptest.NewLogger(t), client, newSampleBot(t, conf, client))
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", url, resp.StatusCode)
	}
	return string(body)
}

func TestController_polling(t *testing.T) {
	conf := testConfig(t, config.ModePolling)
	client := &fakeClient{batches: []string{
		`[{"update_id": 40, "message": {"message_id": 1, "date": 0, "chat": {"id": 42, "type": "private"},
		  "text": "/ping", "entities": [{"type": "bot_command", "offset": 0, "length": 5}]}}]`,
	}}
	c := newController(t, conf, client)

	lc := fxtest.NewLifecycle(t)
	Start(lc, c)
	lc.RequireStart()

	eventually(t, func() bool { return len(client.texts()) > 0 })
	if diff := cmp.Diff([]string{"pong"}, client.texts()); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}

	if body := get(t, fmt.Sprintf("http://%s/", c.listener.Addr())); body != "Hello World!" {
		t.Errorf("GET / = %q, want Hello World!", body)
	}

	lc.RequireStop()

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.requests) == 0 {
		t.Fatal("no requests made before polling")
	}
	if _, ok := client.requests[0].(tgbotapi.DeleteWebhookConfig); !ok {
		t.Errorf("first request = %T, want tgbotapi.DeleteWebhookConfig", client.requests[0])
	}
}

func TestController_webhook(t *testing.T) {
	conf := testConfig(t, config.ModeWebhook)
	conf.Bot.SecretToken = "s3cret"
	client := &fakeClient{}
	c := newController(t, conf, client)

	lc := fxtest.NewLifecycle(t)
	Start(lc, c)
	lc.RequireStart()
	defer lc.RequireStop()

	want := []tgbotapi.Params{{"url": "https://bot.example.com/api/bot", "secret_token": "s3cret"}}
	if diff := cmp.Diff(want, client.params); diff != "" {
		t.Errorf("setWebhook params mismatch (-want +got):\n%s", diff)
	}

	body := `{"update_id": 9, "message": {"message_id": 2, "date": 0, "chat": {"id": 42, "type": "private"}, "text": "hello"}}`
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/bot", c.listener.Addr()), strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set(source.SecretTokenHeader, "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST webhook: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if diff := cmp.Diff([]string{"hello"}, client.texts()); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
	if client.pollCalls != 0 {
		t.Errorf("getUpdates calls = %d, want 0 in webhook mode", client.pollCalls)
	}
}

func TestController_disabled(t *testing.T) {
	conf := testConfig(t, config.ModePolling)
	disabled := false
	conf.Bot.Enabled = &disabled
	client := &fakeClient{}
	c := newController(t, conf, client)

	lc := fxtest.NewLifecycle(t)
	Start(lc, c)
	lc.RequireStart()

	if body := get(t, fmt.Sprintf("http://%s/", c.listener.Addr())); body != "Hello World!" {
		t.Errorf("GET / = %q, want Hello World!", body)
	}
	lc.RequireStop()

	if len(client.requests) != 0 || client.pollCalls != 0 {
		t.Errorf("disabled bot made %d requests and %d polls", len(client.requests), client.pollCalls)
	}
}

func TestController_webhookBadBaseURL(t *testing.T) {
	conf := testConfig(t, config.ModeWebhook)
	conf.Bot.BaseURL = "http://insecure.example.com"
	c := newController(t, conf, &fakeClient{})

	lc := fxtest.NewLifecycle(t)
	Start(lc, c)
	if err := lc.Start(context.Background()); err == nil {
		t.Error("Start() = nil, want error for a non-https base url")
		lc.RequireStop()
	}
}

func TestController_serverFailureStopsPolling(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	conf := testConfig(t, config.ModePolling)
	conf.Server.Listen = busy.Addr().String()
	client := &fakeClient{}
	c := newController(t, conf, client)

	lc := fxtest.NewLifecycle(t)
	Start(lc, c)
	if err := lc.Start(context.Background()); err == nil {
		lc.RequireStop()
		t.Fatal("Start() = nil, want error for a busy listen address")
	}

	select {
	case <-c.done:
	default:
		t.Fatal("poller still running after a failed start")
	}
	client.mu.Lock()
	polls := client.pollCalls
	client.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.pollCalls != polls {
		t.Errorf("getUpdates calls went from %d to %d after a failed start", polls, client.pollCalls)
	}
}

func TestNewRegistry_duplicate(t *testing.T) {
	h := pipeline.Instance(pipeline.HandlerFunc(func(*pipeline.Context) (pipeline.Result, error) {
		return pipeline.Continue, nil
	}))
	_, err := NewRegistry(HandlersParams{Descriptors: []pipeline.Descriptor{
		{Name: "Echo", Factory: h},
		{Name: "Echo", Factory: h},
	}}, zap.NewNop())
	if err == nil {
		t.Error("NewRegistry() = nil error, want duplicate error")
	}
}
