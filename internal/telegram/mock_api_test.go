package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/mock"
)

type mockAPI struct {
	mock.Mock
}

func message(args mock.Arguments) (*models.Message, error) {
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *mockAPI) SendMessage(ctx context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	return message(m.Called(ctx, p))
}

func (m *mockAPI) SendPhoto(ctx context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	return message(m.Called(ctx, p))
}

func (m *mockAPI) SendVideo(ctx context.Context, p *bot.SendVideoParams) (*models.Message, error) {
	return message(m.Called(ctx, p))
}

func (m *mockAPI) SendDocument(ctx context.Context, p *bot.SendDocumentParams) (*models.Message, error) {
	return message(m.Called(ctx, p))
}

func (m *mockAPI) SendVoice(ctx context.Context, p *bot.SendVoiceParams) (*models.Message, error) {
	return message(m.Called(ctx, p))
}

func (m *mockAPI) SendSticker(ctx context.Context, p *bot.SendStickerParams) (*models.Message, error) {
	return message(m.Called(ctx, p))
}

func (m *mockAPI) ForwardMessage(ctx context.Context, p *bot.ForwardMessageParams) (*models.Message, error) {
	return message(m.Called(ctx, p))
}

func (m *mockAPI) DeleteMessage(ctx context.Context, p *bot.DeleteMessageParams) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *mockAPI) AnswerCallbackQuery(ctx context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *mockAPI) GetChatMemberCount(ctx context.Context, p *bot.GetChatMemberCountParams) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *mockAPI) GetChatMember(ctx context.Context, p *bot.GetChatMemberParams) (*models.ChatMember, error) {
	args := m.Called(ctx, p)
	member, _ := args.Get(0).(*models.ChatMember)
	return member, args.Error(1)
}

func (m *mockAPI) GetUserProfilePhotos(ctx context.Context, p *bot.GetUserProfilePhotosParams) (*models.UserProfilePhotos, error) {
	args := m.Called(ctx, p)
	photos, _ := args.Get(0).(*models.UserProfilePhotos)
	return photos, args.Error(1)
}
