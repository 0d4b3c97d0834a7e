package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/olekukonko/tablewriter"
	"github.com/set-night/jasebbot/internal/service"
	"github.com/set-night/jasebbot/internal/telegram"
)

const usageAddPremium = "/addakses <id> <n>d|h"

func (h *Handler) handleAddPremium(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.requireMainOwner(ctx, msg) {
		return
	}
	args := commandArgs(msg)
	if len(args) < 2 {
		h.reply(ctx, msg.Chat.ID, "⚠️ Usage: "+usageAddPremium)
		return
	}
	id, err := parseUserID(args[0])
	if err != nil {
		h.reply(ctx, msg.Chat.ID, "⚠️ Invalid ID. Usage: "+usageAddPremium)
		return
	}
	d, err := service.ParseDuration(strings.ToLower(args[1]))
	if err != nil {
		h.reply(ctx, msg.Chat.ID, "⚠️ Invalid duration. Use days or hours, e.g. `3d` or `12h`.")
		return
	}

	expiry, err := h.entitlements.Grant(ctx, id, d)
	if err != nil {
		h.reply(ctx, msg.Chat.ID, adminErrorText(id, err))
		return
	}
	until := expiry.Time().UTC().Format("2006-01-02 15:04 MST")
	slog.Info("premium granted", "user_id", id, "duration", d, "until", until)

	h.reply(ctx, msg.Chat.ID, fmt.Sprintf("✅ Premium for `%d` extended by *%s*.\n📅 Valid until %s.", id, args[1], until))
	h.notifier.User(ctx, id, fmt.Sprintf("🎉 You received <b>Premium</b> access until <b>%s</b>.", telegram.Escape(until)))
}

func (h *Handler) handleDelPremium(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.idCommand(ctx, update.Message, "/delakses <id>", func(id int64) (string, error) {
		if err := h.entitlements.Revoke(ctx, id); err != nil {
			return "", err
		}
		slog.Info("premium revoked", "user_id", id)
		return fmt.Sprintf("✅ Premium for `%d` was revoked.", id), nil
	})
}

func (h *Handler) handleListPremium(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.requireMainOwner(ctx, msg) {
		return
	}

	entries := h.entitlements.List(ctx)
	if len(entries) == 0 {
		h.reply(ctx, msg.Chat.ID, "ℹ️ No users have Premium.")
		return
	}
	text := fmt.Sprintf("<b>✨ Premium users (%d)</b>\n<pre>%s</pre>",
		len(entries), telegram.Escape(premiumTable(entries, h.entitlements.Now())))
	h.replyHTML(ctx, msg.Chat.ID, text)
}

// premiumTable renders entries as a borderless monospace table.
func premiumTable(entries []service.PremiumEntry, now time.Time) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"#", "User", "Left"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("\t")

	for i, e := range entries {
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(e.UserID, 10),
			timeLeft(e, now),
		})
	}
	table.Render()
	return strings.TrimRight(sb.String(), "\n")
}

func timeLeft(e service.PremiumEntry, now time.Time) string {
	if e.Expiry.Permanent {
		return "permanent"
	}
	hours := int(e.Expiry.Time().Sub(now).Hours())
	if hours < 1 {
		return "<1h"
	}
	return fmt.Sprintf("%dh", hours)
}
