package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/domain"
)

// idCommand parses "/cmd <id>" for main owners and runs apply with the id.
func (h *Handler) idCommand(ctx context.Context, msg *models.Message, usage string, apply func(int64) (string, error)) {
	if !h.requireMainOwner(ctx, msg) {
		return
	}
	args := commandArgs(msg)
	if len(args) < 1 {
		h.reply(ctx, msg.Chat.ID, "⚠️ Usage: "+usage)
		return
	}
	id, err := parseUserID(args[0])
	if err != nil {
		h.reply(ctx, msg.Chat.ID, "⚠️ Invalid ID. Usage: "+usage)
		return
	}

	text, err := apply(id)
	if err != nil {
		h.reply(ctx, msg.Chat.ID, adminErrorText(id, err))
		return
	}
	h.reply(ctx, msg.Chat.ID, text)
}

func adminErrorText(id int64, err error) string {
	switch {
	case errors.Is(err, domain.ErrMainOwnerImmutable):
		return "❌ The main owner can't be changed with commands."
	case errors.Is(err, domain.ErrAlreadyExists):
		return fmt.Sprintf("ℹ️ `%d` is already in the list.", id)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("ℹ️ `%d` was not found.", id)
	case errors.Is(err, domain.ErrAlreadyPermanent):
		return fmt.Sprintf("ℹ️ `%d` already has *permanent* Premium. Use /delakses first to change it.", id)
	default:
		slog.Error("admin command failed", "error", err, "target_id", id)
		return "❌ Something went wrong. Please try again later."
	}
}

// numberedList renders ids as a numbered Markdown list.
func numberedList(title string, ids []int64) string {
	if len(ids) == 0 {
		return title + "\n\n_empty_"
	}
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	for i, id := range ids {
		fmt.Fprintf(&sb, "\n%d. `%d`", i+1, id)
	}
	return sb.String()
}

func (h *Handler) handleAddOwner(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.idCommand(ctx, update.Message, "/addownjs <id>", func(id int64) (string, error) {
		if err := h.admin.AddOwner(ctx, id); err != nil {
			return "", err
		}
		slog.Info("owner added", "user_id", id)
		return fmt.Sprintf("✅ `%d` is now an owner.", id), nil
	})
}

func (h *Handler) handleDelOwner(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.idCommand(ctx, update.Message, "/delownjs <id>", func(id int64) (string, error) {
		if err := h.admin.RemoveOwner(ctx, id); err != nil {
			return "", err
		}
		slog.Info("owner removed", "user_id", id)
		return fmt.Sprintf("✅ `%d` is no longer an owner.", id), nil
	})
}

func (h *Handler) handleListOwners(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.requireMainOwner(ctx, msg) {
		return
	}
	h.reply(ctx, msg.Chat.ID, numberedList("👑 *Owners*", h.admin.Owners(ctx)))
}

func (h *Handler) handleAddBlacklist(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.idCommand(ctx, update.Message, "/addbl <id>", func(id int64) (string, error) {
		if err := h.admin.AddBlacklist(ctx, id); err != nil {
			return "", err
		}
		slog.Info("user blacklisted", "user_id", id)
		return fmt.Sprintf("🚫 `%d` is blacklisted.", id), nil
	})
}

func (h *Handler) handleDelBlacklist(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.idCommand(ctx, update.Message, "/delbl <id>", func(id int64) (string, error) {
		if err := h.admin.RemoveBlacklist(ctx, id); err != nil {
			return "", err
		}
		slog.Info("user unblacklisted", "user_id", id)
		return fmt.Sprintf("✅ `%d` was removed from the blacklist.", id), nil
	})
}

func (h *Handler) handleListBlacklist(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.requireMainOwner(ctx, msg) {
		return
	}
	h.reply(ctx, msg.Chat.ID, numberedList("🚫 *Blacklist*", h.admin.Blacklist(ctx)))
}
