package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/set-night/jasebbot/internal/domain"
)

// DocumentStore is the persistence boundary shared by all services.
type DocumentStore interface {
	View(ctx context.Context) *domain.Document
	Update(ctx context.Context, fn func(doc *domain.Document) error) error
}

// Actor is a user's standing resolved from one document snapshot.
type Actor struct {
	ID             int64
	MainOwner      bool
	DelegatedOwner bool
	Premium        bool
	Blacklisted    bool
	GroupCount     int
}

// Tier is the strongest privilege the actor holds. Main owners are never
// reported as blacklisted.
func (a Actor) Tier() domain.Tier {
	switch {
	case a.MainOwner:
		return domain.TierMainOwner
	case a.Blacklisted:
		return domain.TierBlacklisted
	case a.DelegatedOwner:
		return domain.TierDelegatedOwner
	case a.Premium:
		return domain.TierPremium
	default:
		return domain.TierUser
	}
}

func (a Actor) IsAnyOwner() bool {
	return a.MainOwner || a.DelegatedOwner
}

type AccessPolicy struct {
	mainOwners []int64
	now        func() time.Time
}

func NewAccessPolicy(mainOwners []int64) *AccessPolicy {
	return &AccessPolicy{mainOwners: mainOwners, now: time.Now}
}

func (p *AccessPolicy) IsMainOwner(id int64) bool {
	return lo.Contains(p.mainOwners, id)
}

// MainOwner is the owner bound to relay sessions and notifications.
func (p *AccessPolicy) MainOwner() int64 {
	if len(p.mainOwners) == 0 {
		return 0
	}
	return p.mainOwners[0]
}

// Actor resolves id against doc.
func (p *AccessPolicy) Actor(doc *domain.Document, id int64) Actor {
	return Actor{
		ID:             id,
		MainOwner:      p.IsMainOwner(id),
		DelegatedOwner: doc.IsDelegatedOwner(id),
		Premium:        doc.IsPremium(id, p.now()),
		Blacklisted:    doc.IsBlacklisted(id),
		GroupCount:     doc.GroupCount(id),
	}
}

// Resolve loads a fresh snapshot and resolves id against it.
func (p *AccessPolicy) Resolve(ctx context.Context, store DocumentStore, id int64) Actor {
	return p.Actor(store.View(ctx), id)
}

// Require returns domain.ErrAccessDenied unless the actor reaches min.
func (p *AccessPolicy) Require(a Actor, min domain.Tier) error {
	if a.Tier() == domain.TierBlacklisted {
		return domain.ErrBlacklisted
	}
	if !a.Tier().AtLeast(min) {
		return domain.ErrAccessDenied
	}
	return nil
}
