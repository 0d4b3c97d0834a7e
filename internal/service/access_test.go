package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/set-night/jasebbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessPolicy_Tiers(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	clock := newFakeClock()
	policy := NewAccessPolicy([]int64{mainOwnerID, 1001})
	policy.now = clock.Now

	seed(t, store, func(doc *domain.Document) {
		doc.Owner = domain.IDSet{delegatedOwnerID}
		doc.Blacklist = domain.IDSet{mainOwnerID, 66}
		doc.Premium[5] = domain.ExpiresAt(clock.Now().Add(time.Hour))
		doc.Premium[6] = domain.ExpiresAt(clock.Now().Add(-time.Hour))
	})

	tests := []struct {
		id   int64
		want domain.Tier
	}{
		{id: mainOwnerID, want: domain.TierMainOwner},
		{id: 1001, want: domain.TierMainOwner},
		{id: delegatedOwnerID, want: domain.TierDelegatedOwner},
		{id: 5, want: domain.TierPremium},
		{id: 6, want: domain.TierUser},
		{id: 66, want: domain.TierBlacklisted},
		{id: 99, want: domain.TierUser},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Resolve(ctx, store, tt.id).Tier(), "id %d", tt.id)
	}

	assert.Equal(t, mainOwnerID, policy.MainOwner())
	assert.Zero(t, NewAccessPolicy(nil).MainOwner())
}

func TestAccessPolicy_Require(t *testing.T) {
	p := NewAccessPolicy([]int64{mainOwnerID})

	assert.ErrorIs(t, p.Require(Actor{Blacklisted: true}, domain.TierUser), domain.ErrBlacklisted)
	assert.ErrorIs(t, p.Require(Actor{Premium: true}, domain.TierDelegatedOwner), domain.ErrAccessDenied)
	assert.ErrorIs(t, p.Require(Actor{DelegatedOwner: true}, domain.TierMainOwner), domain.ErrAccessDenied)
	assert.NoError(t, p.Require(Actor{DelegatedOwner: true}, domain.TierDelegatedOwner))
	assert.NoError(t, p.Require(Actor{MainOwner: true, Blacklisted: true}, domain.TierMainOwner))
}

func TestCooldownGate_Window(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newDispatchFixture(t)
	seed(t, f.store, func(doc *domain.Document) {
		doc.Groups = domain.IDSet{-1, -2}
		doc.UserGroupCount[userU] = 2
	})

	_, err := f.svc.Prepare(ctx, request(CommandShare, userU, reply()))
	req.NoError(err)

	f.clock.Advance(10 * time.Minute)
	_, err = f.svc.Prepare(ctx, request(CommandShare, userU, reply()))
	var cd *domain.CooldownError
	req.True(errors.As(err, &cd))
	req.Equal(domain.FeatureShare, cd.Feature)
	req.Equal(5*time.Minute, cd.Remaining)
	minutes, seconds := cd.Parts()
	req.Equal(5, minutes)
	req.Equal(0, seconds)

	f.clock.Advance(5 * time.Minute)
	_, err = f.svc.Prepare(ctx, request(CommandShare, userU, reply()))
	req.NoError(err)

	last, ok := f.store.View(ctx).LastUse(domain.FeatureShare, userU)
	req.True(ok)
	req.Equal(f.clock.Now().Unix(), last.Unix())
}

func TestCooldownGate_Exemptions(t *testing.T) {
	gate := NewCooldownGate()
	clock := newFakeClock()
	gate.now = clock.Now

	doc := domain.NewDocument()
	premium := Actor{ID: 5, Premium: true}
	owner := Actor{ID: mainOwnerID, MainOwner: true}
	delegated := Actor{ID: delegatedOwnerID, DelegatedOwner: true}

	gate.Stamp(doc, premium, domain.FeatureShare)
	gate.Stamp(doc, owner, domain.FeatureBroadcast)
	_, ok := doc.LastUse(domain.FeatureShare, premium.ID)
	assert.False(t, ok)
	_, ok = doc.LastUse(domain.FeatureBroadcast, owner.ID)
	assert.False(t, ok)

	gate.Stamp(doc, delegated, domain.FeatureBroadcast)
	assert.Error(t, gate.Check(doc, delegated, domain.FeatureBroadcast))
	assert.NoError(t, gate.Check(doc, delegated, domain.FeatureShare))

	// Premium exemption covers share only
	gate.Stamp(doc, Actor{ID: premium.ID}, domain.FeatureBroadcast)
	assert.Error(t, gate.Check(doc, premium, domain.FeatureBroadcast))
}

func TestCooldownGate_UsesStoredWindow(t *testing.T) {
	gate := NewCooldownGate()
	clock := newFakeClock()
	gate.now = clock.Now

	doc := domain.NewDocument()
	doc.Settings.Cooldown.Default = 1
	a := Actor{ID: 9}
	gate.Stamp(doc, a, domain.FeatureShare)

	clock.Advance(59 * time.Second)
	assert.Error(t, gate.Check(doc, a, domain.FeatureShare))
	clock.Advance(time.Second)
	assert.NoError(t, gate.Check(doc, a, domain.FeatureShare))
}
