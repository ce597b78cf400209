package pipeline

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Kind is the Telegram update type carried by an Update.
type Kind string

const (
	KindMessage            Kind = "message"
	KindEditedMessage      Kind = "edited_message"
	KindChannelPost        Kind = "channel_post"
	KindEditedChannelPost  Kind = "edited_channel_post"
	KindInlineQuery        Kind = "inline_query"
	KindChosenInlineResult Kind = "chosen_inline_result"
	KindCallbackQuery      Kind = "callback_query"
	KindShippingQuery      Kind = "shipping_query"
	KindPreCheckoutQuery   Kind = "pre_checkout_query"
	KindPoll               Kind = "poll"
	KindPollAnswer         Kind = "poll_answer"
	KindMyChatMember       Kind = "my_chat_member"
	KindChatMember         Kind = "chat_member"
	KindChatJoinRequest    Kind = "chat_join_request"
	KindUnknown            Kind = "unknown"
)

// Source tells how an Update reached the bot.
type Source string

const (
	SourcePolling Source = "polling"
	SourceWebhook Source = "webhook"
)

// Update is one inbound event. It is created by an update source and is
// read-only for everything downstream, including Raw.
type Update struct {
	ID         int
	Kind       Kind
	Source     Source
	ReceivedAt time.Time
	Raw        *tgbotapi.Update
}

// NewUpdate wraps a decoded Telegram update.
func NewUpdate(raw *tgbotapi.Update, src Source, receivedAt time.Time) *Update {
	if raw == nil {
		raw = &tgbotapi.Update{}
	}
	return &Update{
		ID:         raw.UpdateID,
		Kind:       KindOf(raw),
		Source:     src,
		ReceivedAt: receivedAt,
		Raw:        raw,
	}
}

// KindOf reports which payload field of raw is populated.
func KindOf(raw *tgbotapi.Update) Kind {
	switch {
	case raw == nil:
		return KindUnknown
	case raw.Message != nil:
		return KindMessage
	case raw.EditedMessage != nil:
		return KindEditedMessage
	case raw.ChannelPost != nil:
		return KindChannelPost
	case raw.EditedChannelPost != nil:
		return KindEditedChannelPost
	case raw.InlineQuery != nil:
		return KindInlineQuery
	case raw.ChosenInlineResult != nil:
		return KindChosenInlineResult
	case raw.CallbackQuery != nil:
		return KindCallbackQuery
	case raw.ShippingQuery != nil:
		return KindShippingQuery
	case raw.PreCheckoutQuery != nil:
		return KindPreCheckoutQuery
	case raw.Poll != nil:
		return KindPoll
	case raw.PollAnswer != nil:
		return KindPollAnswer
	case raw.MyChatMember != nil:
		return KindMyChatMember
	case raw.ChatMember != nil:
		return KindChatMember
	case raw.ChatJoinRequest != nil:
		return KindChatJoinRequest
	default:
		return KindUnknown
	}
}

// Message returns the message carried by message-like updates
// (new or edited messages and channel posts), or the message a
// callback query was attached to.
func (u *Update) Message() *tgbotapi.Message {
	if u == nil || u.Raw == nil {
		return nil
	}
	switch {
	case u.Raw.Message != nil:
		return u.Raw.Message
	case u.Raw.EditedMessage != nil:
		return u.Raw.EditedMessage
	case u.Raw.ChannelPost != nil:
		return u.Raw.ChannelPost
	case u.Raw.EditedChannelPost != nil:
		return u.Raw.EditedChannelPost
	case u.Raw.CallbackQuery != nil:
		return u.Raw.CallbackQuery.Message
	}
	return nil
}

// Chat returns the chat the update belongs to, nil if there is none.
func (u *Update) Chat() *tgbotapi.Chat {
	if msg := u.Message(); msg != nil {
		return msg.Chat
	}
	if u == nil || u.Raw == nil {
		return nil
	}
	switch {
	case u.Raw.MyChatMember != nil:
		return &u.Raw.MyChatMember.Chat
	case u.Raw.ChatMember != nil:
		return &u.Raw.ChatMember.Chat
	case u.Raw.ChatJoinRequest != nil:
		return &u.Raw.ChatJoinRequest.Chat
	}
	return nil
}

// Sender returns the user who triggered the update, nil for anonymous
// channel posts and polls.
func (u *Update) Sender() *tgbotapi.User {
	if u == nil || u.Raw == nil {
		return nil
	}
	switch {
	case u.Raw.CallbackQuery != nil:
		return u.Raw.CallbackQuery.From
	case u.Raw.InlineQuery != nil:
		return u.Raw.InlineQuery.From
	case u.Raw.ChosenInlineResult != nil:
		return u.Raw.ChosenInlineResult.From
	case u.Raw.ShippingQuery != nil:
		return u.Raw.ShippingQuery.From
	case u.Raw.PreCheckoutQuery != nil:
		return u.Raw.PreCheckoutQuery.From
	case u.Raw.PollAnswer != nil:
		return &u.Raw.PollAnswer.User
	case u.Raw.MyChatMember != nil:
		return &u.Raw.MyChatMember.From
	case u.Raw.ChatMember != nil:
		return &u.Raw.ChatMember.From
	case u.Raw.ChatJoinRequest != nil:
		return &u.Raw.ChatJoinRequest.From
	}
	if msg := u.Message(); msg != nil {
		return msg.From
	}
	return nil
}

// Text returns the text of a message-like update.
func (u *Update) Text() string {
	if u == nil || u.Raw == nil {
		return ""
	}
	// A callback's attached message is not the user's input.
	if u.Raw.CallbackQuery != nil {
		return ""
	}
	if msg := u.Message(); msg != nil {
		return msg.Text
	}
	return ""
}
