package service

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forwardedFrom(id int, userID int64) *models.Message {
	return &models.Message{
		ID: id,
		ForwardOrigin: &models.MessageOrigin{
			MessageOriginUser: &models.MessageOriginUser{SenderUser: models.User{ID: userID}},
		},
	}
}

func TestRelay_ConnectIsIdempotent(t *testing.T) {
	r := NewRelayService(mainOwnerID, nil)
	clock := newFakeClock()
	r.now = clock.Now

	first := r.Connect(userU)
	clock.Advance(1)
	second := r.Connect(userU)

	assert.Equal(t, first, second)
	assert.Equal(t, mainOwnerID, first.OwnerID)
	assert.Equal(t, 1, r.Active())
}

func TestRelay_ResolveReply(t *testing.T) {
	r := NewRelayService(mainOwnerID, nil)
	r.Connect(userU)
	r.RememberForward(900, userU)

	uid, err := r.ResolveReply(mainOwnerID, forwardedFrom(1, userU))
	require.NoError(t, err)
	assert.Equal(t, userU, uid)

	uid, err = r.ResolveReply(mainOwnerID, &models.Message{ID: 900})
	require.NoError(t, err)
	assert.Equal(t, userU, uid)

	_, err = r.ResolveReply(mainOwnerID, nil)
	assert.ErrorIs(t, err, domain.ErrNoReply)

	_, err = r.ResolveReply(mainOwnerID, &models.Message{ID: 901})
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = r.ResolveReply(delegatedOwnerID, forwardedFrom(1, userU))
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestRelay_DisconnectEndsSession(t *testing.T) {
	r := NewRelayService(mainOwnerID, nil)
	r.Connect(userU)
	r.RememberForward(900, userU)

	sess, ok := r.Disconnect(userU)
	require.True(t, ok)
	assert.Equal(t, userU, sess.UserID)

	_, ok = r.Session(userU)
	assert.False(t, ok)
	_, err := r.ResolveReply(mainOwnerID, forwardedFrom(1, userU))
	assert.ErrorIs(t, err, domain.ErrNoSession)
	_, err = r.ResolveReply(mainOwnerID, &models.Message{ID: 900})
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, ok = r.Disconnect(userU)
	assert.False(t, ok)
	assert.Zero(t, r.Active())
}

func TestRelay_SessionGauge(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := NewRelayService(mainOwnerID, m)

	r.Connect(userU)
	r.Connect(userU + 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RelaySessions))

	r.Disconnect(userU)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelaySessions))
	assert.Equal(t, 1, r.Active())
}
