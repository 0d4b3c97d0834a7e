package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/config"
)

// Notifier sends best-effort messages on behalf of the bot. Failures are
// logged and never returned.
type Notifier struct {
	api API
	cfg *config.Config
}

func NewNotifier(api API, cfg *config.Config) *Notifier {
	return &Notifier{api: api, cfg: cfg}
}

func (n *Notifier) send(ctx context.Context, params *bot.SendMessageParams) {
	ctx, cancel := context.WithTimeout(ctx, config.NotifyTimeout)
	defer cancel()

	params.Text = truncateRunes(params.Text, config.MaxTelegramMessageLen)
	if _, err := n.api.SendMessage(ctx, params); err != nil {
		slog.Error("failed to send notification", "chat_id", params.ChatID, "error", err)
	}
}

// Owner sends an HTML message to the main owner.
func (n *Notifier) Owner(ctx context.Context, text string) {
	n.send(ctx, &bot.SendMessageParams{
		ChatID:    n.cfg.MainOwner(),
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}

// User sends an HTML message to any chat.
func (n *Notifier) User(ctx context.Context, chatID int64, text string) {
	n.send(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}

// PremiumExpired tells userID their premium ended, with a renewal button
// when a developer contact is configured.
func (n *Notifier) PremiumExpired(ctx context.Context, userID int64) {
	params := &bot.SendMessageParams{
		ChatID:    userID,
		Text:      "⚠️ Your Premium access has *expired*.",
		ParseMode: models.ParseModeMarkdownV1,
	}
	if url := n.cfg.DeveloperURL(); url != "" {
		params.ReplyMarkup = InlineKeyboard(ButtonRow(URLButton("👑 Buy access", url)))
	}
	n.send(ctx, params)
}

// SendBackup uploads data as a JSON document.
func (n *Notifier) SendBackup(ctx context.Context, chatID int64, data []byte, caption string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*config.NotifyTimeout)
	defer cancel()

	_, err := n.api.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: config.BackupFileName, Data: bytes.NewReader(data)},
		Caption:  caption,
	})
	if err != nil {
		return fmt.Errorf("send backup document: %w", err)
	}
	return nil
}

// OwnerBackup sends data to the main owner, logging failures.
func (n *Notifier) OwnerBackup(ctx context.Context, data []byte) {
	if err := n.SendBackup(ctx, n.cfg.MainOwner(), data, ""); err != nil {
		slog.Error("send backup to owner", "error", err)
	}
}

// LogError reports an internal failure to the main owner.
func (n *Notifier) LogError(err error, where string) {
	msg := fmt.Sprintf("❌ <b>Error</b>\n\n<b>Context:</b> %s\n<b>Error:</b> <code>%s</code>\n<b>Time:</b> %s",
		Escape(where), Escape(err.Error()), time.Now().Format("2006-01-02 15:04:05"))
	n.Owner(context.Background(), msg)
}
