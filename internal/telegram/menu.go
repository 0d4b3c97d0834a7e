package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
)

// MenuTracker keeps at most one menu message per chat, deleting the previous
// menu before showing a new one. State lives for the process lifetime.
type MenuTracker struct {
	api    API
	images []string
	pick   func([]string) string

	mu     sync.Mutex
	active map[int64]int
}

func NewMenuTracker(api API, images []string) *MenuTracker {
	return &MenuTracker{
		api:    api,
		images: images,
		pick:   lo.Sample[string],
		active: make(map[int64]int),
	}
}

// Replace shows caption as the chat's menu. A random menu image is used when
// configured; text is sent when there is none or the photo is rejected.
func (m *MenuTracker) Replace(ctx context.Context, chatID int64, caption string, markup models.ReplyMarkup) error {
	m.deletePrevious(ctx, chatID)

	var sent *models.Message
	var err error
	if len(m.images) > 0 {
		sent, err = m.api.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:      chatID,
			Photo:       &models.InputFileString{Data: m.pick(m.images)},
			Caption:     caption,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: markup,
		})
		if err != nil {
			slog.Warn("send menu photo, falling back to text", "error", err, "chat_id", chatID)
		}
	}
	if sent == nil {
		sent, err = SendHTML(ctx, m.api, chatID, caption, markup)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.active[chatID] = sent.ID
	m.mu.Unlock()
	return nil
}

func (m *MenuTracker) deletePrevious(ctx context.Context, chatID int64) {
	m.mu.Lock()
	prev, ok := m.active[chatID]
	delete(m.active, chatID)
	m.mu.Unlock()
	if !ok {
		return
	}

	if _, err := m.api.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: prev}); err != nil {
		if !strings.Contains(err.Error(), "message to delete not found") {
			slog.Warn("delete previous menu", "error", err, "chat_id", chatID, "message_id", prev)
		}
	}
}

// Active returns the message id of the chat's current menu.
func (m *MenuTracker) Active(chatID int64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.active[chatID]
	return id, ok
}
