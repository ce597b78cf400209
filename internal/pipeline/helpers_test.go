package pipeline

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func messageUpdate(id int, msg *tgbotapi.Message) *Update {
	if msg.Chat == nil {
		msg.Chat = &tgbotapi.Chat{ID: 42, Type: "private"}
	}
	if msg.From == nil {
		msg.From = &tgbotapi.User{ID: 7, FirstName: "Ann"}
	}
	msg.MessageID = id
	return NewUpdate(&tgbotapi.Update{UpdateID: id, Message: msg}, SourcePolling, testTime)
}

func textUpdate(id int, text string) *Update {
	return messageUpdate(id, &tgbotapi.Message{Text: text})
}

func commandUpdate(id int, text string) *Update {
	u := textUpdate(id, text)
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	u.Raw.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	return u
}

func stickerUpdate(id int) *Update {
	return messageUpdate(id, &tgbotapi.Message{Sticker: &tgbotapi.Sticker{FileID: "sticker-1"}})
}

func locationUpdate(id int) *Update {
	return messageUpdate(id, &tgbotapi.Message{Location: &tgbotapi.Location{Latitude: 52.52, Longitude: 13.4}})
}

func callbackUpdate(id int, data string) *Update {
	return NewUpdate(&tgbotapi.Update{
		UpdateID: id,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: 7},
			Data:    data,
			Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 42}},
		},
	}, SourcePolling, testTime)
}

// recorder collects the names of handlers in the order they ran.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) handler(name string, res Result) Handler {
	return HandlerFunc(func(c *Context) (Result, error) {
		r.mu.Lock()
		r.calls = append(r.calls, name)
		r.mu.Unlock()
		return res, nil
	})
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// fakeSender records outgoing messages.
type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	err  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, s.err
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return &tgbotapi.APIResponse{Ok: s.err == nil}, s.err
}
