package service

import (
	"time"

	"github.com/set-night/jasebbot/internal/domain"
)

// CooldownGate rate limits share and broadcast per user with the global
// window stored in the document.
type CooldownGate struct {
	now func() time.Time
}

func NewCooldownGate() *CooldownGate {
	return &CooldownGate{now: time.Now}
}

// Exempt: main owners always, premium users for share only.
func (g *CooldownGate) Exempt(a Actor, f domain.Feature) bool {
	if a.MainOwner {
		return true
	}
	return f == domain.FeatureShare && a.Premium
}

// Check returns a *domain.CooldownError while the actor is inside the window.
// It never mutates doc.
func (g *CooldownGate) Check(doc *domain.Document, a Actor, f domain.Feature) error {
	if g.Exempt(a, f) {
		return nil
	}
	last, ok := doc.LastUse(f, a.ID)
	if !ok {
		return nil
	}

	elapsed := g.now().Sub(last)
	window := doc.CooldownWindow()
	if elapsed < window {
		return &domain.CooldownError{Feature: f, Remaining: window - elapsed}
	}
	return nil
}

// Stamp records the use for non-exempt actors.
func (g *CooldownGate) Stamp(doc *domain.Document, a Actor, f domain.Feature) {
	if g.Exempt(a, f) {
		return
	}
	doc.StampUse(f, a.ID, g.now())
}
