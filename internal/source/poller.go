package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"echobot/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPollTimeout    = 30
	defaultPollLimit      = 100
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// Requester performs a Bot API call. *tgbotapi.BotAPI satisfies it.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Poller pulls updates with getUpdates and dispatches them.
// The offset is owned by the goroutine running Run.
type Poller struct {
	Client  Requester
	Handler UpdateHandler
	Logger  *zap.Logger

	// Timeout is the long-polling timeout in seconds (default 30).
	Timeout int
	// Limit caps the batch size (default 100).
	Limit int
	// StartDelay postpones the first request.
	StartDelay time.Duration
	// Concurrency bounds how many updates of a batch are dispatched at
	// once. Values below 2 dispatch sequentially.
	Concurrency int
	// AllowedUpdates filters update kinds. Empty means the server default.
	AllowedUpdates []string
	// InitialBackoff and MaxBackoff bound the retry delay after a failed
	// request (defaults 1s and 30s).
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	offset atomic.Int64

	// wait and now are replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

// Offset returns the next update_id the poller will ask for.
func (p *Poller) Offset() int {
	return int(p.offset.Load())
}

// Run polls until ctx is cancelled. Cancellation is honored between
// batches; a batch that is already being dispatched is finished first.
// It returns nil on shutdown and an error only for a misconfigured poller.
func (p *Poller) Run(ctx context.Context) error {
	if p.Client == nil || p.Handler == nil {
		return errors.New("source: poller needs a client and a handler")
	}
	log := p.logger()

	if p.StartDelay > 0 {
		log.Info("poller waiting before first request", zap.Duration("delay", p.StartDelay))
		if err := p.sleep(ctx, p.StartDelay); err != nil {
			return nil
		}
	}

	log.Info("poller started", zap.Int("offset", p.Offset()))
	backoff := p.initialBackoff()

	for {
		if ctx.Err() != nil {
			log.Info("poller stopped", zap.Int("offset", p.Offset()))
			return nil
		}

		batch, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("poller stopped", zap.Int("offset", p.Offset()))
				return nil
			}
			delay := backoff
			var retry *retryAfterError
			if errors.As(err, &retry) && retry.after > delay {
				delay = retry.after
			}
			log.Warn("poll failed", zap.Duration("retry_in", delay), zap.Error(err))
			if err := p.sleep(ctx, delay); err != nil {
				log.Info("poller stopped", zap.Int("offset", p.Offset()))
				return nil
			}
			backoff *= 2
			if backoff > p.maxBackoff() {
				backoff = p.maxBackoff()
			}
			continue
		}

		backoff = p.initialBackoff()
		// The batch runs to completion even if shutdown starts meanwhile.
		p.process(context.WithoutCancel(ctx), batch)
	}
}

type fetchResult struct {
	resp *tgbotapi.APIResponse
	err  error
}

// retryAfterError carries the server's flood-control hint.
type retryAfterError struct {
	after time.Duration
	err   error
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() error { return e.err }

// fetch requests the next batch. If ctx ends while the request is in
// flight the result is abandoned: nothing is dispatched and the offset
// stays put, so the same updates are delivered again later.
func (p *Poller) fetch(ctx context.Context) ([]json.RawMessage, error) {
	cfg := tgbotapi.UpdateConfig{
		Offset:         p.Offset(),
		Limit:          p.limit(),
		Timeout:        p.timeout(),
		AllowedUpdates: p.AllowedUpdates,
	}

	done := make(chan fetchResult, 1)
	go func() {
		resp, err := p.Client.Request(cfg)
		done <- fetchResult{resp: resp, err: err}
	}()

	var res fetchResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}

	var err error
	switch {
	case res.err != nil:
		err = &TransientError{Op: "getUpdates", Err: res.err}
	case res.resp == nil || !res.resp.Ok:
		err = &TransientError{Op: "getUpdates", Err: apiFailure(res.resp)}
	}
	if err != nil {
		if res.resp != nil && res.resp.Parameters != nil && res.resp.Parameters.RetryAfter > 0 {
			return nil, &retryAfterError{after: time.Duration(res.resp.Parameters.RetryAfter) * time.Second, err: err}
		}
		return nil, err
	}

	var batch []json.RawMessage
	if len(res.resp.Result) > 0 {
		if err := json.Unmarshal(res.resp.Result, &batch); err != nil {
			return nil, &TransientError{Op: "getUpdates", Err: fmt.Errorf("decode batch: %w", err)}
		}
	}
	return batch, nil
}

// process decodes and dispatches a batch, then acknowledges it by moving
// the offset past the highest update_id seen, malformed updates included.
func (p *Poller) process(ctx context.Context, batch []json.RawMessage) {
	log := p.logger()
	next := p.offset.Load()
	updates := make([]*pipeline.Update, 0, len(batch))

	for _, raw := range batch {
		u, err := Decode(raw, pipeline.SourcePolling, p.clock())
		if err != nil {
			var malformed *MalformedUpdateError
			if errors.As(err, &malformed) && int64(malformed.UpdateID) >= next {
				next = int64(malformed.UpdateID) + 1
			}
			log.Warn("skipping malformed update", zap.Error(err))
			continue
		}
		updates = append(updates, u)
		if int64(u.ID) >= next {
			next = int64(u.ID) + 1
		}
	}

	p.dispatch(ctx, updates)
	p.offset.Store(next)
}

func (p *Poller) dispatch(ctx context.Context, updates []*pipeline.Update) {
	if p.Concurrency < 2 || len(updates) < 2 {
		for _, u := range updates {
			p.Handler.Dispatch(ctx, u)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(p.Concurrency)
	for _, u := range updates {
		g.Go(func() error {
			p.Handler.Dispatch(ctx, u)
			return nil
		})
	}
	_ = g.Wait() // dispatch never fails, faults are reported inside
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	if p.wait != nil {
		return p.wait(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Poller) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}

func (p *Poller) timeout() int {
	if p.Timeout <= 0 {
		return defaultPollTimeout
	}
	return p.Timeout
}

func (p *Poller) limit() int {
	if p.Limit <= 0 || p.Limit > defaultPollLimit {
		return defaultPollLimit
	}
	return p.Limit
}

func (p *Poller) initialBackoff() time.Duration {
	if p.InitialBackoff <= 0 {
		return defaultInitialBackoff
	}
	return p.InitialBackoff
}

func (p *Poller) maxBackoff() time.Duration {
	if p.MaxBackoff <= 0 {
		return defaultMaxBackoff
	}
	return p.MaxBackoff
}
