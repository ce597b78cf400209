package pipeline

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Sentinel errors returned by Context helpers.
var (
	ErrNoSender = errors.New("pipeline: no sender configured")
	ErrNoChat   = errors.New("pipeline: update has no chat")
)

// Sender is the outbound Bot API capability handed to handlers.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Context is the per-update state threaded through a pipeline. It belongs
// to a single dispatch and must not be shared with other goroutines.
type Context struct {
	ctx        context.Context
	update     *Update
	sender     Sender
	traceID    uuid.UUID
	items      map[string]any
	faultHooks []func(err error)
}

func newContext(ctx context.Context, u *Update, sender Sender) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Context{
		ctx:     ctx,
		update:  u,
		sender:  sender,
		traceID: id,
	}
}

// Ctx returns the context.Context of the dispatch.
func (c *Context) Ctx() context.Context { return c.ctx }

// Update returns the update being dispatched.
func (c *Context) Update() *Update { return c.update }

// TraceID identifies this dispatch in logs.
func (c *Context) TraceID() uuid.UUID { return c.traceID }

// Sender returns the outbound API, nil if none was configured.
func (c *Context) Sender() Sender { return c.sender }

// Get returns an item stored by an earlier handler.
func (c *Context) Get(key string) any {
	return c.items[key]
}

// Set stores an item for later handlers of the same dispatch.
func (c *Context) Set(key string, val any) {
	if c.items == nil {
		c.items = make(map[string]any)
	}
	c.items[key] = val
}

// OnFault registers fn to run if a later handler of this dispatch faults.
// Hooks run in registration order before the dispatcher's reporter.
func (c *Context) OnFault(fn func(err error)) {
	if fn != nil {
		c.faultHooks = append(c.faultHooks, fn)
	}
}

// Send sends a prepared message through the configured Sender.
func (c *Context) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if c.sender == nil {
		return tgbotapi.Message{}, ErrNoSender
	}
	return c.sender.Send(msg)
}

// Reply sends text to the update's chat, quoting the message when there is one.
func (c *Context) Reply(text string) error {
	chat := c.update.Chat()
	if chat == nil {
		return ErrNoChat
	}
	msg := tgbotapi.NewMessage(chat.ID, text)
	if m := c.update.Message(); m != nil && c.update.Raw.CallbackQuery == nil {
		msg.ReplyToMessageID = m.MessageID
	}
	_, err := c.Send(msg)
	return err
}
