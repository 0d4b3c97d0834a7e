package handler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/metrics"
	"github.com/set-night/jasebbot/internal/repository"
	"github.com/set-night/jasebbot/internal/service"
	"github.com/set-night/jasebbot/internal/telegram"
	"github.com/stretchr/testify/require"
)

const (
	ownerID int64 = 1000
	userID  int64 = 42
)

type sent struct {
	Kind   string
	ChatID int64
	Text   string
	From   int64
	MsgID  int
}

// fakeAPI records every outbound call and answers queries from fixed tables.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []sent
	nextID  int
	members map[int64]int
	status  models.ChatMemberType
	fail    map[int64]bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100, members: map[int64]int{}, status: models.ChatMemberTypeMember, fail: map[int64]bool{}}
}

func chatID(v any) int64 {
	id, _ := v.(int64)
	return id
}

func (f *fakeAPI) record(kind string, chat any, text string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := chatID(chat)
	if f.fail[id] {
		return nil, errors.New("Forbidden: bot was blocked by the user")
	}
	f.nextID++
	f.calls = append(f.calls, sent{Kind: kind, ChatID: id, Text: text, MsgID: f.nextID})
	return &models.Message{ID: f.nextID, Chat: models.Chat{ID: id}}, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	return f.record("message", p.ChatID, p.Text)
}

func (f *fakeAPI) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	return f.record("photo", p.ChatID, p.Caption)
}

func (f *fakeAPI) SendVideo(_ context.Context, p *bot.SendVideoParams) (*models.Message, error) {
	return f.record("video", p.ChatID, p.Caption)
}

func (f *fakeAPI) SendDocument(_ context.Context, p *bot.SendDocumentParams) (*models.Message, error) {
	return f.record("document", p.ChatID, p.Caption)
}

func (f *fakeAPI) SendVoice(_ context.Context, p *bot.SendVoiceParams) (*models.Message, error) {
	return f.record("voice", p.ChatID, p.Caption)
}

func (f *fakeAPI) SendSticker(_ context.Context, p *bot.SendStickerParams) (*models.Message, error) {
	return f.record("sticker", p.ChatID, "")
}

func (f *fakeAPI) ForwardMessage(_ context.Context, p *bot.ForwardMessageParams) (*models.Message, error) {
	msg, err := f.record("forward", p.ChatID, "")
	if err == nil {
		f.mu.Lock()
		f.calls[len(f.calls)-1].From = chatID(p.FromChatID)
		f.mu.Unlock()
	}
	return msg, err
}

func (f *fakeAPI) DeleteMessage(_ context.Context, p *bot.DeleteMessageParams) (bool, error) {
	_, err := f.record("delete", p.ChatID, "")
	return err == nil, err
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	_, err := f.record("answer", int64(0), p.Text)
	return err == nil, err
}

func (f *fakeAPI) GetChatMemberCount(_ context.Context, p *bot.GetChatMemberCountParams) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[chatID(p.ChatID)], nil
}

func (f *fakeAPI) GetChatMember(_ context.Context, _ *bot.GetChatMemberParams) (*models.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.ChatMember{Type: f.status}, nil
}

func (f *fakeAPI) GetUserProfilePhotos(_ context.Context, _ *bot.GetUserProfilePhotosParams) (*models.UserProfilePhotos, error) {
	return &models.UserProfilePhotos{}, nil
}

// to returns the calls of kind sent to chat.
func (f *fakeAPI) to(chat int64, kind string) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, c := range f.calls {
		if c.ChatID == chat && c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// texts joins the text of every message sent to chat.
func (f *fakeAPI) texts(chat int64) string {
	parts := []string{}
	for _, c := range f.to(chat, "message") {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n---\n")
}

type harness struct {
	h     *Handler
	api   *fakeAPI
	store *repository.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	store, err := repository.NewStore(filepath.Join(dir, "data.json"))
	require.NoError(t, err)

	cfg := &config.Config{
		OwnerIDs:    []int64{ownerID},
		Version:     "1.0",
		ShareFooter: "\n\n~ test",
		Developer:   "dev",
	}
	m := metrics.New(prometheus.NewRegistry())
	api := newFakeAPI()
	courier := telegram.NewCourier(api)
	policy := service.NewAccessPolicy(cfg.OwnerIDs)
	dispatcher := service.NewDispatcher(m)

	h := New(Deps{
		API:          api,
		Cfg:          cfg,
		Store:        store,
		Policy:       policy,
		Entitlements: service.NewEntitlementService(store, courier, m),
		Dispatch:     service.NewMassDispatchService(store, policy, service.NewCooldownGate(), dispatcher, courier, cfg.ShareFooter, m),
		Relay:        service.NewRelayService(policy.MainOwner(), nil),
		Admin:        service.NewAdminService(store, policy),
		Backups:      service.NewBackupService(repository.NewFileBackup(store, filepath.Join(dir, "backup")), nil),
		Courier:      courier,
		Menus:        telegram.NewMenuTracker(api, nil),
		Notifier:     telegram.NewNotifier(api, cfg),
		StartedAt:    time.Now().Add(-time.Hour),
	})
	h.runAsync = func(f func()) { f() }
	h.host = func(context.Context) (HostStats, error) {
		return HostStats{CPUModel: "Test CPU", Cores: 4, MemUsed: 1 << 30, MemTotal: 4 << 30}, nil
	}
	return &harness{h: h, api: api, store: store}
}

func (hs *harness) seed(t *testing.T, fn func(doc *domain.Document)) {
	t.Helper()
	require.NoError(t, hs.store.Update(context.Background(), func(doc *domain.Document) error {
		fn(doc)
		return nil
	}))
}

func privateText(from int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   7,
		Date: int(time.Now().Unix()),
		Text: text,
		Chat: models.Chat{ID: from, Type: models.ChatTypePrivate},
		From: &models.User{ID: from, FirstName: "Tester"},
	}}
}
