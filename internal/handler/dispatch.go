package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/service"
)

// handleDispatch validates a mass dispatch command and runs it in the
// background, detached from the update's cancellation.
func (h *Handler) handleDispatch(cmd service.Command) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}

		plan, err := h.dispatch.Prepare(ctx, service.DispatchRequest{
			Command: cmd,
			ActorID: msg.From.ID,
			ChatID:  msg.Chat.ID,
			Reply:   msg.ReplyToMessage,
		})
		if err != nil {
			slog.Debug("dispatch rejected", "command", string(cmd), "user_id", msg.From.ID, "error", err)
			h.reply(ctx, msg.Chat.ID, dispatchErrorText(cmd, err))
			return
		}

		runCtx := context.WithoutCancel(ctx)
		h.runAsync(func() { h.dispatch.Run(runCtx, plan) })
	}
}

// dispatchErrorText maps a Prepare failure to the reply shown to the invoker.
func dispatchErrorText(cmd service.Command, err error) string {
	var cd *domain.CooldownError
	switch {
	case errors.Is(err, domain.ErrBlacklisted):
		return textBlacklisted
	case errors.Is(err, domain.ErrAccessDenied):
		switch cmd {
		case service.CommandShare:
			return "❌ /sharemsg needs Premium or at least 2 groups with the bot. Open 🔥 Free Plan to learn how."
		case service.CommandShareForward:
			return "❌ /sharemsgv2 is for Premium users only."
		default:
			return fmt.Sprintf("❌ /%s is for owners only.", cmd)
		}
	case errors.As(err, &cd):
		m, s := cd.Parts()
		return fmt.Sprintf("⏳ Please wait *%d minutes %d seconds* before using /%s again.", m, s, cmd)
	case errors.Is(err, domain.ErrNoReply):
		return fmt.Sprintf("⚠️ Reply to the message you want to send with /%s.", cmd)
	case errors.Is(err, domain.ErrNoTargets):
		if cmd.Feature() == domain.FeatureBroadcast {
			return "⚠️ There are no users to send to."
		}
		return "⚠️ The bot is not in any group yet."
	default:
		return "❌ Something went wrong. Please try again later."
	}
}
