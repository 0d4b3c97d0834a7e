package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/metrics"
)

// UpdateInfo is the routing summary of an update.
type UpdateInfo struct {
	Type   string
	ChatID int64
	UserID int64
}

// Describe extracts the update type, chat and sender.
func Describe(update *models.Update) UpdateInfo {
	info := UpdateInfo{Type: "unknown"}

	switch {
	case update.Message != nil:
		info.Type = "message"
		info.ChatID = update.Message.Chat.ID
		if update.Message.From != nil {
			info.UserID = update.Message.From.ID
		}
	case update.CallbackQuery != nil:
		info.Type = "callback_query"
		if update.CallbackQuery.Message.Message != nil {
			info.ChatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		info.UserID = update.CallbackQuery.From.ID
	case update.MyChatMember != nil:
		info.Type = "my_chat_member"
		info.ChatID = update.MyChatMember.Chat.ID
		info.UserID = update.MyChatMember.From.ID
	}
	return info
}

// Logging returns middleware that logs update processing time.
func Logging(m *metrics.Metrics) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			info := Describe(update)

			next(ctx, b, update)

			m.RecordUpdate(info.Type)
			slog.Debug("update processed",
				"type", info.Type,
				"chat_id", info.ChatID,
				"user_id", info.UserID,
				"duration", time.Since(start),
			)
		}
	}
}
