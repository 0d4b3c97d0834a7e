package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/domain"
)

var memberStatuses = []models.ChatMemberType{
	models.ChatMemberTypeOwner,
	models.ChatMemberTypeAdministrator,
	models.ChatMemberTypeMember,
}

// Courier delivers copies and forwards of messages to single chats.
type Courier struct {
	api API
}

func NewCourier(api API) *Courier {
	return &Courier{api: api}
}

type contentKind uint8

const (
	kindText contentKind = 1 << iota
	kindPhoto
	kindVideo
	kindDocument
	kindVoice
	kindSticker
)

const (
	copyKinds  = kindText | kindPhoto | kindVideo | kindDocument | kindSticker
	relayKinds = kindText | kindPhoto | kindVoice | kindDocument | kindSticker
)

func kindOf(m *models.Message) contentKind {
	switch {
	case m.Text != "":
		return kindText
	case len(m.Photo) > 0:
		return kindPhoto
	case m.Video != nil:
		return kindVideo
	case m.Document != nil:
		return kindDocument
	case m.Voice != nil:
		return kindVoice
	case m.Sticker != nil:
		return kindSticker
	default:
		return 0
	}
}

// Copy re-sends the content of src to chatID with footer appended to its
// text or caption. Text and captions use Markdown. Only text, photo, video,
// document and sticker messages can be copied.
func (c *Courier) Copy(ctx context.Context, chatID int64, src *models.Message, footer string) error {
	return c.copy(ctx, chatID, src, footer, models.ParseModeMarkdownV1, copyKinds)
}

// Relay re-sends the content of src unformatted. Used for owner replies in
// a chat session, which carry text, photo, voice, document or sticker.
func (c *Courier) Relay(ctx context.Context, chatID int64, src *models.Message) error {
	return c.copy(ctx, chatID, src, "", "", relayKinds)
}

func (c *Courier) copy(ctx context.Context, chatID int64, src *models.Message, footer string, mode models.ParseMode, allowed contentKind) error {
	if src == nil {
		return domain.ErrNoReply
	}
	kind := kindOf(src)
	if kind&allowed == 0 {
		return domain.ErrUnsupportedContent
	}

	caption := truncateRunes(src.Caption+footer, config.MaxCaptionLen)

	var err error
	switch kind {
	case kindText:
		if mode == models.ParseModeMarkdownV1 {
			_, err = SendMarkdown(ctx, c.api, chatID, src.Text+footer, nil)
		} else {
			_, err = SendPlain(ctx, c.api, chatID, src.Text+footer, nil)
		}
	case kindPhoto:
		largest := src.Photo[len(src.Photo)-1]
		_, err = c.api.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:    chatID,
			Photo:     &models.InputFileString{Data: largest.FileID},
			Caption:   caption,
			ParseMode: mode,
		})
	case kindVideo:
		_, err = c.api.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:    chatID,
			Video:     &models.InputFileString{Data: src.Video.FileID},
			Caption:   caption,
			ParseMode: mode,
		})
	case kindDocument:
		_, err = c.api.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:    chatID,
			Document:  &models.InputFileString{Data: src.Document.FileID},
			Caption:   caption,
			ParseMode: mode,
		})
	case kindVoice:
		_, err = c.api.SendVoice(ctx, &bot.SendVoiceParams{
			ChatID:    chatID,
			Voice:     &models.InputFileString{Data: src.Voice.FileID},
			Caption:   caption,
			ParseMode: mode,
		})
	case kindSticker:
		// Stickers carry no caption, so it goes out as a separate message.
		if _, err = c.api.SendSticker(ctx, &bot.SendStickerParams{
			ChatID:  chatID,
			Sticker: &models.InputFileString{Data: src.Sticker.FileID},
		}); err == nil && caption != "" {
			if mode == models.ParseModeMarkdownV1 {
				_, err = SendMarkdown(ctx, c.api, chatID, caption, nil)
			} else {
				_, err = SendPlain(ctx, c.api, chatID, caption, nil)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("copy message to %d: %w", chatID, err)
	}
	return nil
}

// Forward forwards a message keeping its sender attribution.
func (c *Courier) Forward(ctx context.Context, chatID, fromChatID int64, messageID int) error {
	_, err := c.ForwardMessage(ctx, chatID, fromChatID, messageID)
	return err
}

// ForwardMessage forwards a message and returns the id of the copy in chatID.
func (c *Courier) ForwardMessage(ctx context.Context, chatID, fromChatID int64, messageID int) (int, error) {
	msg, err := c.api.ForwardMessage(ctx, &bot.ForwardMessageParams{
		ChatID:     chatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	})
	if err != nil {
		return 0, fmt.Errorf("forward message to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

func (c *Courier) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := SendMarkdown(ctx, c.api, chatID, text, nil)
	return err
}

func (c *Courier) ChatMemberCount(ctx context.Context, chatID int64) (int, error) {
	n, err := c.api.GetChatMemberCount(ctx, &bot.GetChatMemberCountParams{ChatID: chatID})
	if err != nil {
		return 0, fmt.Errorf("get chat member count: %w", err)
	}
	return n, nil
}

// IsMember reports whether userID is a member, admin or creator of chat.
// Lookup failures count as not a member.
func (c *Courier) IsMember(ctx context.Context, chat string, userID int64) bool {
	member, err := c.api.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chat, UserID: userID})
	if err != nil {
		slog.Warn("get chat member", "error", err, "chat", chat, "user_id", userID)
		return false
	}
	return lo.Contains(memberStatuses, member.Type)
}

// ProfilePhoto returns the file id of the user's most recent profile photo.
func (c *Courier) ProfilePhoto(ctx context.Context, userID int64) (string, bool) {
	photos, err := c.api.GetUserProfilePhotos(ctx, &bot.GetUserProfilePhotosParams{UserID: userID, Limit: 1})
	if err != nil {
		slog.Debug("get user profile photos", "error", err, "user_id", userID)
		return "", false
	}
	if photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return "", false
	}
	sizes := photos.Photos[0]
	return sizes[len(sizes)-1].FileID, true
}
