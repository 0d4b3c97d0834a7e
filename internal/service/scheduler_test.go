package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/set-night/jasebbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiryRecorder struct {
	mu    sync.Mutex
	users []int64
}

func (r *expiryRecorder) PremiumExpired(_ context.Context, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

type stubJob struct {
	name     string
	schedule string
}

func (j stubJob) Name() string                { return j.name }
func (j stubJob) Schedule() string            { return j.schedule }
func (j stubJob) Run(_ context.Context) error { return nil }

func TestExpiryJob_RevokesAndNotifies(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newEntitlements(t, nil)
	seed(t, store, func(doc *domain.Document) {
		doc.Premium[3] = domain.ExpiresAt(clock.Now().Add(-time.Second))
		doc.Premium[1] = domain.ExpiresAt(clock.Now().Add(-time.Hour))
		doc.Premium[2] = domain.PermanentExpiry()
	})

	notifier := &expiryRecorder{}
	job := NewExpiryJob(svc, notifier, time.Minute)
	require.NoError(t, job.Run(ctx))

	assert.Equal(t, []int64{1, 3}, notifier.users)
	assert.Equal(t, "@every 1m0s", job.Schedule())
	assert.Equal(t, "premium-expiry", job.Name())
	assert.Len(t, store.View(ctx).Premium, 1)
}

func TestScheduler_RejectsDuplicateJob(t *testing.T) {
	s := NewScheduler()
	require.NoError(t, s.Register(stubJob{name: "a", schedule: "@every 1h"}))
	assert.Error(t, s.Register(stubJob{name: "a", schedule: "@every 1h"}))
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler()
	require.NoError(t, s.Register(stubJob{name: "bad", schedule: "not a schedule"}))
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler()
	require.NoError(t, s.Register(stubJob{name: "tick", schedule: "@every 1h"}))
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
