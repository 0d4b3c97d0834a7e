package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/config"
)

// markdownSlack leaves room for the delimiters FixMarkdown may append.
const markdownSlack = 4

// SendMarkdown sends a potentially long message, splitting it into parts if needed.
// A part the platform rejects as Markdown is resent as the unmodified plain
// text. markup is attached to the last part.
func SendMarkdown(ctx context.Context, api API, chatID int64, text string, markup models.ReplyMarkup) (*models.Message, error) {
	parts := SplitMessage(text, config.MaxTelegramMessageLen-markdownSlack)

	var last *models.Message
	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      FixMarkdown(part),
			ParseMode: models.ParseModeMarkdownV1,
		}
		if i == len(parts)-1 && markup != nil {
			params.ReplyMarkup = markup
		}

		msg, err := api.SendMessage(ctx, params)
		if err != nil {
			slog.Warn("markdown send failed, falling back to plain text", "error", err, "chat_id", chatID)
			params.Text = part
			params.ParseMode = ""
			msg, err = api.SendMessage(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("send message: %w", err)
			}
		}
		last = msg
	}
	return last, nil
}

// SendPlain sends text without a parse mode, split to the message limit.
func SendPlain(ctx context.Context, api API, chatID int64, text string, markup models.ReplyMarkup) (*models.Message, error) {
	parts := SplitMessage(text, config.MaxTelegramMessageLen)

	var last *models.Message
	for i, part := range parts {
		params := &bot.SendMessageParams{ChatID: chatID, Text: part}
		if i == len(parts)-1 && markup != nil {
			params.ReplyMarkup = markup
		}
		msg, err := api.SendMessage(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("send message: %w", err)
		}
		last = msg
	}
	return last, nil
}

// SendHTML sends text in HTML mode and retries with tags stripped if the
// platform rejects the markup.
func SendHTML(ctx context.Context, api API, chatID int64, text string, markup models.ReplyMarkup) (*models.Message, error) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	msg, err := api.SendMessage(ctx, params)
	if err == nil {
		return msg, nil
	}
	slog.Warn("html send failed, falling back to plain text", "error", err, "chat_id", chatID)
	return SendPlain(ctx, api, chatID, StripHTML(text), markup)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
