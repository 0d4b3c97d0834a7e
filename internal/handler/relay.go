package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/telegram"
)

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// handleConnect opens a chat session with the main owner.
func (h *Handler) handleConnect(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat.Type != models.ChatTypePrivate {
		return
	}
	defer h.deleteMessage(ctx, msg.Chat.ID, msg.ID)

	if h.policy.IsMainOwner(msg.From.ID) {
		h.reply(ctx, msg.Chat.ID, "ℹ️ You are the owner. Reply to relayed messages to answer users.")
		return
	}

	sess := h.relay.Connect(msg.From.ID)
	slog.Info("chat session opened", "user_id", sess.UserID, "owner_id", sess.OwnerID)

	h.replyWithMarkup(ctx, msg.Chat.ID,
		"💬 *Chat session started.*\nSend your message and the owner will reply here.\nPress ❌ Cancel to end the session.",
		cancelKeyboard())
	h.notifier.Owner(ctx, fmt.Sprintf("👤 User %s (<code>%d</code>) started a chat session.",
		telegram.UserLink(msg.From.ID, displayName(msg.From)), msg.From.ID))
}

// handleDisconnect closes the sender's chat session.
func (h *Handler) handleDisconnect(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat.Type != models.ChatTypePrivate {
		return
	}
	defer h.deleteMessage(ctx, msg.Chat.ID, msg.ID)

	actor := h.actor(ctx, msg)
	if _, ok := h.relay.Disconnect(msg.From.ID); !ok {
		h.showMainMenu(ctx, msg.Chat.ID, actor)
		return
	}
	slog.Info("chat session closed", "user_id", msg.From.ID)

	h.replyWithMarkup(ctx, msg.Chat.ID, "✅ Chat session ended.", telegram.RemoveKeyboard())
	h.showMainMenu(ctx, msg.Chat.ID, actor)
	h.notifier.Owner(ctx, fmt.Sprintf("👤 User %s (<code>%d</code>) ended the chat session.",
		telegram.UserLink(msg.From.ID, displayName(msg.From)), msg.From.ID))
}

// handleSessionMessage relays private messages between connected users and
// the owner. Messages outside a session are ignored.
func (h *Handler) handleSessionMessage(ctx context.Context, msg *models.Message) {
	if msg.Chat.Type != models.ChatTypePrivate {
		return
	}

	if ownerID := h.policy.MainOwner(); msg.From.ID == ownerID {
		if msg.ReplyToMessage != nil {
			h.relayOwnerReply(ctx, ownerID, msg)
		}
		return
	}

	sess, ok := h.relay.Session(msg.From.ID)
	if !ok {
		return
	}

	id, err := h.courier.ForwardMessage(ctx, sess.OwnerID, msg.Chat.ID, msg.ID)
	if err != nil {
		slog.Error("relay to owner", "error", err, "user_id", msg.From.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to deliver your message. Please try again.")
		return
	}
	h.relay.RememberForward(id, msg.From.ID)
	h.reply(ctx, msg.Chat.ID, "✔️ Delivered to the owner.")
}

func (h *Handler) relayOwnerReply(ctx context.Context, ownerID int64, msg *models.Message) {
	userID, err := h.relay.ResolveReply(ownerID, msg.ReplyToMessage)
	if err != nil {
		slog.Debug("owner reply not routed", "error", err)
		return
	}

	err = h.courier.Relay(ctx, userID, msg)
	switch {
	case errors.Is(err, domain.ErrUnsupportedContent):
		h.reply(ctx, msg.Chat.ID, "⚠️ This message type can't be relayed. Send text, photo, voice, document or sticker.")
	case err != nil:
		slog.Error("relay to user", "error", err, "user_id", userID)
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("❌ Failed to send to user `%d`.", userID))
	default:
		h.reply(ctx, msg.Chat.ID, "✔️ Sent to the user.")
	}
}
