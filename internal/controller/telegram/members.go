package telegram

import (
	"fmt"
	"strings"

	"echobot/internal/pipeline"
	"echobot/types"

	"go.uber.org/zap"
)

// UpdateMembers keeps the chat roster in sync with join and leave events.
func (b *TelegramBot) UpdateMembers(c *pipeline.Context) (pipeline.Result, error) {
	m := c.Update().Message()
	if m == nil || m.Chat == nil {
		return pipeline.Continue, nil
	}
	ctx := c.Ctx()

	var joined []string
	for i := range m.NewChatMembers {
		u := &m.NewChatMembers[i]
		if b.config.Username != "" && strings.EqualFold(u.UserName, b.config.Username) {
			continue
		}

		member, err := b.roster.AddMember(ctx, &types.Member{
			ChatID:       m.Chat.ID,
			TelegramID:   u.ID,
			TelegramName: b.getUserName(u),
			Username:     u.UserName,
			IsBot:        u.IsBot,
		})
		if err != nil {
			return pipeline.Continue, fmt.Errorf("add member %d: %w", u.ID, err)
		}

		b.logger.Info("Member joined",
			zap.Int64("chat_id", member.ChatID),
			zap.Int64("telegram_id", member.TelegramID),
			zap.String("member_id", member.MemberID.String()),
		)
		joined = append(joined, member.TelegramName)
	}

	if len(joined) > 0 {
		members, err := b.roster.ListMembers(ctx, m.Chat.ID)
		if err != nil {
			return pipeline.Continue, fmt.Errorf("list members of %d: %w", m.Chat.ID, err)
		}
		b.reply(c, fmt.Sprintf("🎉 Welcome, %s! (%d on the roster)", strings.Join(joined, ", "), len(members)))
	}

	if left := m.LeftChatMember; left != nil {
		if err := b.roster.RemoveMember(ctx, m.Chat.ID, left.ID); err != nil {
			return pipeline.Continue, fmt.Errorf("remove member %d: %w", left.ID, err)
		}

		b.logger.Info("Member left", zap.Int64("chat_id", m.Chat.ID), zap.Int64("telegram_id", left.ID))
		b.reply(c, fmt.Sprintf("👋 Goodbye, %s", b.getUserName(left)))
	}

	return pipeline.Continue, nil
}
