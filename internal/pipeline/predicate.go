package pipeline

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Predicate decides whether a branch applies to an update.
// Predicates must be pure: no side effects and no mutation of the update.
type Predicate func(u *Update) bool

// IsWebhookSource matches updates delivered through the webhook endpoint.
func IsWebhookSource(u *Update) bool {
	return u != nil && u.Source == SourceWebhook
}

// NewMessage matches any new (not edited) message.
func NewMessage(u *Update) bool {
	return u != nil && u.Raw != nil && u.Raw.Message != nil
}

// NewTextMessage matches a new message that carries text.
func NewTextMessage(u *Update) bool {
	return NewMessage(u) && u.Raw.Message.Text != ""
}

// NewCommand matches a new message whose first entity is a bot command
// starting at offset zero.
func NewCommand(u *Update) bool {
	return NewMessage(u) && u.Raw.Message.IsCommand()
}

// StickerMessage matches a new message with a sticker.
func StickerMessage(u *Update) bool {
	return NewMessage(u) && u.Raw.Message.Sticker != nil
}

// LocationMessage matches a new message with a location.
func LocationMessage(u *Update) bool {
	return NewMessage(u) && u.Raw.Message.Location != nil
}

// MembersChanged matches service messages about members joining or
// leaving a chat, including channel posts.
func MembersChanged(u *Update) bool {
	if u == nil || u.Raw == nil {
		return false
	}
	return membershipChange(u.Raw.Message) || membershipChange(u.Raw.ChannelPost)
}

func membershipChange(msg *tgbotapi.Message) bool {
	return msg != nil && (len(msg.NewChatMembers) > 0 || msg.LeftChatMember != nil)
}

// CallbackQueryPresent matches callback query updates.
func CallbackQueryPresent(u *Update) bool {
	return u != nil && u.Raw != nil && u.Raw.CallbackQuery != nil
}

// KindIs matches updates of exactly the given kind.
func KindIs(kind Kind) Predicate {
	return func(u *Update) bool {
		return u != nil && u.Kind == kind
	}
}

// TextStartsWithCommand matches new text messages whose first
// whitespace-delimited token is prefix+name, or prefix+name+"@"+botUsername
// when botUsername is set. The comparison is case-sensitive.
func TextStartsWithCommand(prefix, name, botUsername string) Predicate {
	want := prefix + name
	wantAddressed := ""
	if botUsername != "" {
		wantAddressed = want + "@" + botUsername
	}
	return func(u *Update) bool {
		if !NewTextMessage(u) {
			return false
		}
		fields := strings.Fields(u.Raw.Message.Text)
		if len(fields) == 0 {
			return false
		}
		return fields[0] == want || (wantAddressed != "" && fields[0] == wantAddressed)
	}
}

// And matches when every predicate matches. An empty And matches everything.
func And(ps ...Predicate) Predicate {
	return func(u *Update) bool {
		for _, p := range ps {
			if !p(u) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches. An empty Or matches nothing.
func Or(ps ...Predicate) Predicate {
	return func(u *Update) bool {
		for _, p := range ps {
			if p(u) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(u *Update) bool {
		return !p(u)
	}
}
