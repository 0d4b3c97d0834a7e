package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PanicReporter forwards recovered panics to a human.
type PanicReporter interface {
	LogError(err error, where string)
}

// Recover returns middleware that recovers from panics. reporter may be nil.
func Recover(reporter PanicReporter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					info := Describe(update)
					slog.Error("panic recovered in handler",
						"panic", r,
						"type", info.Type,
						"chat_id", info.ChatID,
						"stack", string(debug.Stack()),
					)
					if reporter != nil {
						reporter.LogError(fmt.Errorf("panic: %v", r), "update "+info.Type)
					}
				}
			}()
			next(ctx, b, update)
		}
	}
}
