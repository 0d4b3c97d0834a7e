package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/service"
)

type ctxKey string

const ActorKey ctxKey = "actor"

// BlacklistNotice is sent to blacklisted users who message the bot privately.
const BlacklistNotice = "🚫 You are blocked from using this bot. Contact the owner if you think this is a mistake."

// GetActor extracts the resolved actor from context.
func GetActor(ctx context.Context) (service.Actor, bool) {
	a, ok := ctx.Value(ActorKey).(service.Actor)
	return a, ok
}

// WithActor stores a resolved actor in ctx.
func WithActor(ctx context.Context, a service.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, a)
}

// ActorLoader returns middleware that resolves the sender's standing into context.
func ActorLoader(policy *service.AccessPolicy, store service.DocumentStore) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			info := Describe(update)
			if info.UserID != 0 {
				ctx = WithActor(ctx, policy.Resolve(ctx, store, info.UserID))
			}
			next(ctx, b, update)
		}
	}
}

// Blacklist returns middleware that stops messages and callbacks from
// blacklisted users. Membership updates pass through.
func Blacklist() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			actor, ok := GetActor(ctx)
			if !ok || update.MyChatMember != nil || !actor.Blacklisted || actor.MainOwner {
				next(ctx, b, update)
				return
			}

			slog.Debug("blacklisted user ignored", "user_id", actor.ID)
			if msg := update.Message; msg != nil && (msg.Chat.Type == models.ChatTypePrivate || strings.HasPrefix(msg.Text, "/")) {
				if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: actor.ID,
					Text:   BlacklistNotice,
				}); err != nil {
					slog.Warn("send blacklist notice", "error", err, "user_id", actor.ID)
				}
			}
			if update.CallbackQuery != nil {
				if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
					CallbackQueryID: update.CallbackQuery.ID,
					Text:            BlacklistNotice,
					ShowAlert:       true,
				}); err != nil {
					slog.Warn("answer blacklisted callback", "error", err, "user_id", actor.ID)
				}
			}
		}
	}
}
