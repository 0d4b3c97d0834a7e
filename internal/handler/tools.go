package handler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/telegram"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

func (h *Handler) handleSetCooldown(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.requireMainOwner(ctx, msg) {
		return
	}

	args := commandArgs(msg)
	if len(args) == 0 {
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("⏱ Current cooldown: *%d minutes*.\nUsage: /setjeda <minutes>", h.admin.CooldownMinutes(ctx)))
		return
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes <= 0 {
		h.reply(ctx, msg.Chat.ID, "⚠️ The cooldown must be a whole number of minutes greater than zero.")
		return
	}
	if err := h.admin.SetCooldown(ctx, minutes); err != nil {
		slog.Error("set cooldown", "error", err)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to save the cooldown.")
		return
	}
	slog.Info("cooldown changed", "minutes", minutes, "by", msg.From.ID)
	h.reply(ctx, msg.Chat.ID, fmt.Sprintf("✅ Cooldown set to *%d minutes*.", minutes))
}

// dataCenter derives the Telegram data centre from a user id.
func dataCenter(id int64) int64 {
	return (id >> 27) & 7
}

func idCard(u *models.User, now time.Time) string {
	username := "-"
	if u.Username != "" {
		username = "@" + telegram.Escape(u.Username)
	}
	return fmt.Sprintf("<b>🪪 ID Card</b>\n\n"+
		"👤 Name: %s\n"+
		"🆔 ID: <code>%d</code>\n"+
		"🔗 Username: %s\n"+
		"🌐 DC: %d\n"+
		"📅 Date: %s",
		telegram.UserLink(u.ID, displayName(u)),
		u.ID,
		username,
		dataCenter(u.ID),
		now.Format("2006-01-02 15:04:05"),
	)
}

func (h *Handler) handleCheckID(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	u := msg.From
	caption := idCard(u, h.now())
	markup := telegram.InlineKeyboard(telegram.ButtonRow(
		telegram.URLButton(displayName(u), fmt.Sprintf("tg://user?id=%d", u.ID)),
	))

	if photo, ok := h.courier.ProfilePhoto(ctx, u.ID); ok {
		_, err := h.api.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:      msg.Chat.ID,
			Photo:       &models.InputFileString{Data: photo},
			Caption:     caption,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: markup,
		})
		if err == nil {
			return
		}
		slog.Warn("send id card photo", "error", err, "user_id", u.ID)
	}
	if _, err := telegram.SendHTML(ctx, h.api, msg.Chat.ID, caption, markup); err != nil {
		slog.Error("send id card", "error", err, "user_id", u.ID)
	}
}

func (h *Handler) handleBackup(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.requireMainOwner(ctx, msg) {
		return
	}

	backup, err := h.backups.Create(ctx)
	if err != nil {
		slog.Error("backup command", "error", err)
		h.reply(ctx, msg.Chat.ID, "❌ Backup failed.")
		return
	}
	caption := fmt.Sprintf("📦 %s (%s)", backup.Name, humanize.IBytes(uint64(len(backup.Data))))
	if err := h.notifier.SendBackup(ctx, msg.Chat.ID, backup.Data, caption); err != nil {
		slog.Error("send backup", "error", err)
		h.reply(ctx, msg.Chat.ID, "❌ Backup was saved but could not be sent.")
		return
	}
	h.reply(ctx, msg.Chat.ID, "✅ Backup created and sent.")
}

// HostStats is the /ping snapshot of the machine and process.
type HostStats struct {
	CPUModel  string
	Cores     int
	MemUsed   uint64
	MemTotal  uint64
	ProcessRS uint64
}

func probeHost(ctx context.Context) (HostStats, error) {
	var s HostStats

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		s.CPUModel = strings.TrimSpace(infos[0].ModelName)
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.Cores = n
	} else {
		s.Cores = runtime.NumCPU()
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("read memory stats: %w", err)
	}
	s.MemUsed, s.MemTotal = vm.Used, vm.Total

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfo(); err == nil {
			s.ProcessRS = info.RSS
		}
	}
	return s, nil
}

// formatUptime renders d as "Nd Nh Nm Ns".
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}

func pingText(latency, uptime time.Duration, sessions int, s HostStats) string {
	var sb strings.Builder
	sb.WriteString("<b>🏓 Pong!</b>\n\n")
	fmt.Fprintf(&sb, "⚡ Latency: <code>%d ms</code>\n", latency.Milliseconds())
	fmt.Fprintf(&sb, "⏱ Uptime: <code>%s</code>\n", formatUptime(uptime))
	fmt.Fprintf(&sb, "💬 Chat sessions: <code>%d</code>\n", sessions)
	if s.CPUModel != "" {
		fmt.Fprintf(&sb, "🖥 CPU: <code>%s</code>\n", telegram.Escape(s.CPUModel))
	}
	fmt.Fprintf(&sb, "🧮 Cores: <code>%d</code>\n", s.Cores)
	if s.MemTotal > 0 {
		fmt.Fprintf(&sb, "💾 RAM: <code>%s / %s</code>\n", humanize.IBytes(s.MemUsed), humanize.IBytes(s.MemTotal))
	}
	if s.ProcessRS > 0 {
		fmt.Fprintf(&sb, "📦 Bot memory: <code>%s</code>\n", humanize.IBytes(s.ProcessRS))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h *Handler) handlePing(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.requireMainOwner(ctx, msg) {
		return
	}

	start := h.now()
	stats, err := h.host(ctx)
	if err != nil {
		slog.Warn("probe host", "error", err)
	}
	latency := h.now().Sub(start)
	if sent := time.Unix(int64(msg.Date), 0); msg.Date > 0 && start.After(sent) {
		latency = start.Sub(sent)
	}
	h.replyHTML(ctx, msg.Chat.ID, pingText(latency, h.now().Sub(h.startedAt), h.relay.Active(), stats))
}
