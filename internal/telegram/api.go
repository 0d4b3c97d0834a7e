package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// API is the part of the Bot API client the bot uses. *bot.Bot satisfies it.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendVoice(ctx context.Context, params *bot.SendVoiceParams) (*models.Message, error)
	SendSticker(ctx context.Context, params *bot.SendStickerParams) (*models.Message, error)
	ForwardMessage(ctx context.Context, params *bot.ForwardMessageParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	GetChatMemberCount(ctx context.Context, params *bot.GetChatMemberCountParams) (int, error)
	GetChatMember(ctx context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error)
	GetUserProfilePhotos(ctx context.Context, params *bot.GetUserProfilePhotosParams) (*models.UserProfilePhotos, error)
}

var _ API = (*bot.Bot)(nil)
