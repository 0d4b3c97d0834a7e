package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/service"
	"github.com/set-night/jasebbot/internal/telegram"
)

const callbackCheckJoin = "check_join_again"

const (
	textJoinChannel = "📣 Please join our channel first to use this bot, then press ✅ Try again."
	textJoinThanks  = "✅ Thanks for joining! Send /start to open the menu."
	textJoinMissing = "❌ You haven't joined the channel yet."
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if int64(msg.Date) < h.startedAt.Unix() {
		slog.Debug("ignoring stale /start", "chat_id", msg.Chat.ID, "date", msg.Date)
		return
	}

	actor := h.actor(ctx, msg)
	if actor.Tier() == domain.TierBlacklisted {
		h.reply(ctx, msg.Chat.ID, textBlacklisted)
		return
	}
	if !h.requireChannelMembership(ctx, actor, msg.Chat.ID) {
		return
	}

	if msg.Chat.Type == models.ChatTypePrivate {
		if added, err := h.admin.RegisterUser(ctx, actor.ID); err != nil {
			slog.Error("register user", "error", err, "user_id", actor.ID)
		} else if added {
			slog.Info("new user registered", "user_id", actor.ID)
		}
		actor = h.policy.Resolve(ctx, h.store, actor.ID)
	}

	if _, ok := h.relay.Session(actor.ID); ok {
		h.replyWithMarkup(ctx, msg.Chat.ID, "💬 You are chatting with the owner. Press ❌ Cancel to end the session.", cancelKeyboard())
		return
	}
	h.showMainMenu(ctx, msg.Chat.ID, actor)
}

// requireChannelMembership sends the join prompt and returns false when the
// actor has not joined the configured channel. Owners pass.
func (h *Handler) requireChannelMembership(ctx context.Context, actor service.Actor, chatID int64) bool {
	channel := h.cfg.ChannelChatID()
	if channel == "" || actor.IsAnyOwner() {
		return true
	}
	if h.courier.IsMember(ctx, channel, actor.ID) {
		return true
	}

	h.replyWithMarkup(ctx, chatID, textJoinChannel, joinKeyboard(h.cfg.ChannelURL))
	return false
}

func joinKeyboard(channelURL string) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{}
	if channelURL != "" {
		rows = append(rows, telegram.ButtonRow(telegram.URLButton("📣 Join Channel", channelURL)))
	}
	rows = append(rows, telegram.ButtonRow(telegram.InlineButton("✅ Try again", callbackCheckJoin)))
	return telegram.InlineKeyboard(rows...)
}

func (h *Handler) handleCheckJoin(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	text := textJoinMissing
	if channel := h.cfg.ChannelChatID(); channel == "" || h.courier.IsMember(ctx, channel, cq.From.ID) {
		text = textJoinThanks
		h.reply(ctx, cq.From.ID, text)
	}

	if _, err := h.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            text,
		ShowAlert:       text == textJoinMissing,
	}); err != nil {
		slog.Warn("answer callback", "error", err, "user_id", cq.From.ID)
	}
}
