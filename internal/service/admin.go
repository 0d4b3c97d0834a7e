package service

import (
	"context"
	"fmt"

	"github.com/set-night/jasebbot/internal/domain"
)

// AdminService manages delegated owners, the blacklist, the user registry
// and the global cooldown setting.
type AdminService struct {
	store  DocumentStore
	policy *AccessPolicy
}

func NewAdminService(store DocumentStore, policy *AccessPolicy) *AdminService {
	return &AdminService{store: store, policy: policy}
}

func (s *AdminService) AddOwner(ctx context.Context, id int64) error {
	if s.policy.IsMainOwner(id) {
		return domain.ErrMainOwnerImmutable
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if !doc.Owner.Add(id) {
			return domain.ErrAlreadyExists
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add owner: %w", err)
	}
	return nil
}

func (s *AdminService) RemoveOwner(ctx context.Context, id int64) error {
	if s.policy.IsMainOwner(id) {
		return domain.ErrMainOwnerImmutable
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if !doc.Owner.Remove(id) {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove owner: %w", err)
	}
	return nil
}

func (s *AdminService) Owners(ctx context.Context) []int64 {
	return s.store.View(ctx).Owner
}

func (s *AdminService) AddBlacklist(ctx context.Context, id int64) error {
	if s.policy.IsMainOwner(id) {
		return domain.ErrMainOwnerImmutable
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if !doc.Blacklist.Add(id) {
			return domain.ErrAlreadyExists
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add blacklist: %w", err)
	}
	return nil
}

func (s *AdminService) RemoveBlacklist(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if !doc.Blacklist.Remove(id) {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove blacklist: %w", err)
	}
	return nil
}

func (s *AdminService) Blacklist(ctx context.Context) []int64 {
	return s.store.View(ctx).Blacklist
}

// SetCooldown sets the global window in minutes. minutes must be positive.
func (s *AdminService) SetCooldown(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("set cooldown: %w", domain.ErrInvalidDuration)
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		doc.Settings.Cooldown.Default = minutes
		return nil
	})
	if err != nil {
		return fmt.Errorf("set cooldown: %w", err)
	}
	return nil
}

func (s *AdminService) CooldownMinutes(ctx context.Context) int {
	return s.store.View(ctx).Settings.Cooldown.Default
}

// RegisterUser adds id to the user registry and reports whether it was new.
func (s *AdminService) RegisterUser(ctx context.Context, id int64) (bool, error) {
	if s.store.View(ctx).Users.Contains(id) {
		return false, nil
	}
	var added bool
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		added = doc.Users.Add(id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}
	return added, nil
}

type Stats struct {
	Groups  int
	Users   int
	Premium int
}

func (s *AdminService) Stats(ctx context.Context) Stats {
	doc := s.store.View(ctx)
	return Stats{Groups: len(doc.Groups), Users: len(doc.Users), Premium: len(doc.Premium)}
}
