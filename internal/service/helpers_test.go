package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/repository"
	"github.com/stretchr/testify/require"
)

const (
	mainOwnerID      int64 = 1000
	delegatedOwnerID int64 = 2000
)

var errDelivery = errors.New("chat not found")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	s, err := repository.NewStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return s
}

func seed(t *testing.T, s DocumentStore, fn func(doc *domain.Document)) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), func(doc *domain.Document) error {
		fn(doc)
		return nil
	}))
}

type fakeCounter struct {
	counts map[int64]int
	err    error
}

func (f *fakeCounter) ChatMemberCount(_ context.Context, chatID int64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[chatID], nil
}

type courierCall struct {
	Kind   string
	ChatID int64
	Footer string
	Text   string
}

type fakeCourier struct {
	mu    sync.Mutex
	fail  map[int64]bool
	calls []courierCall
}

func newFakeCourier(failing ...int64) *fakeCourier {
	f := &fakeCourier{fail: make(map[int64]bool)}
	for _, id := range failing {
		f.fail[id] = true
	}
	return f
}

func (f *fakeCourier) record(c courierCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.fail[c.ChatID] {
		return errDelivery
	}
	return nil
}

func (f *fakeCourier) Copy(_ context.Context, chatID int64, _ *models.Message, footer string) error {
	return f.record(courierCall{Kind: "copy", ChatID: chatID, Footer: footer})
}

func (f *fakeCourier) Forward(_ context.Context, chatID, _ int64, _ int) error {
	return f.record(courierCall{Kind: "forward", ChatID: chatID})
}

func (f *fakeCourier) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, courierCall{Kind: "text", ChatID: chatID, Text: text})
	return nil
}

func (f *fakeCourier) byKind(kind string) []courierCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []courierCall
	for _, c := range f.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	return nil
}
