package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/metrics"
)

// MemberCounter reports how many members a chat has.
type MemberCounter interface {
	ChatMemberCount(ctx context.Context, chatID int64) (int, error)
}

// JoinResult describes what a bot join did to the adding user.
type JoinResult struct {
	Outcome     domain.JoinOutcome
	UserID      int64
	MemberCount int
	GroupCount  int
	Expiry      domain.Expiry
}

// LeaveResult describes what a bot removal did to the attributed user.
type LeaveResult struct {
	Tracked     bool
	UserID      int64
	MemberCount int
	GroupCount  int
	Revoked     bool
}

type PremiumEntry struct {
	UserID int64
	Expiry domain.Expiry
}

// EntitlementService drives premium grants from group membership events,
// the expiry sweep and explicit admin commands.
type EntitlementService struct {
	store   DocumentStore
	members MemberCounter
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewEntitlementService(store DocumentStore, members MemberCounter, m *metrics.Metrics) *EntitlementService {
	return &EntitlementService{store: store, members: members, metrics: m, now: time.Now}
}

func (s *EntitlementService) memberCount(ctx context.Context, chatID int64) int {
	n, err := s.members.ChatMemberCount(ctx, chatID)
	if err != nil {
		slog.Warn("get chat member count", "error", err, "chat_id", chatID)
		return 0
	}
	return n
}

// OnBotAdded registers the group and rewards the user who added the bot.
func (s *EntitlementService) OnBotAdded(ctx context.Context, ev domain.MembershipEvent) (*JoinResult, error) {
	res := &JoinResult{Outcome: domain.JoinAlreadyTracked, UserID: ev.ActorID}
	if s.store.View(ctx).Groups.Contains(ev.ChatID) {
		return res, nil
	}

	res.MemberCount = s.memberCount(ctx, ev.ChatID)

	var groups int
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if !doc.Groups.Add(ev.ChatID) {
			res.Outcome = domain.JoinAlreadyTracked
			return nil
		}
		doc.GroupAddedBy[ev.ChatID] = ev.ActorID
		doc.UserGroupCount[ev.ActorID]++
		res.GroupCount = doc.UserGroupCount[ev.ActorID]
		groups = len(doc.Groups)

		switch {
		case res.MemberCount < config.MinGroupMembers:
			res.Outcome = domain.JoinTooSmall
		case res.GroupCount >= config.PermanentGroupThreshold:
			doc.Premium[ev.ActorID] = domain.PermanentExpiry()
			res.Outcome = domain.JoinPermanent
		default:
			doc.Premium[ev.ActorID] = doc.Premium[ev.ActorID].Extend(s.now(), config.PremiumPerGroup)
			res.Outcome = domain.JoinExtended
			if doc.Premium[ev.ActorID].Permanent {
				res.Outcome = domain.JoinPermanent
			}
		}
		res.Expiry = doc.Premium[ev.ActorID]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register group: %w", err)
	}

	if res.Outcome != domain.JoinAlreadyTracked {
		s.metrics.SetTrackedGroups(groups)
	}
	if res.Outcome == domain.JoinExtended || res.Outcome == domain.JoinPermanent {
		s.metrics.RecordGrant("group_" + res.Outcome.String())
	}
	slog.Info("bot added to group",
		"chat_id", ev.ChatID,
		"user_id", ev.ActorID,
		"outcome", res.Outcome.String(),
		"members", res.MemberCount,
		"user_groups", res.GroupCount,
	)
	return res, nil
}

// OnBotRemoved deregisters the group and revokes time-bounded premium from the
// attributed user once they fall below the permanent threshold.
func (s *EntitlementService) OnBotRemoved(ctx context.Context, ev domain.MembershipEvent) (*LeaveResult, error) {
	res := &LeaveResult{UserID: ev.ActorID}
	if !s.store.View(ctx).Groups.Contains(ev.ChatID) {
		return res, nil
	}

	res.MemberCount = s.memberCount(ctx, ev.ChatID)

	var groups int
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if !doc.Groups.Remove(ev.ChatID) {
			return nil
		}
		res.Tracked = true
		groups = len(doc.Groups)

		if adder, ok := doc.GroupAddedBy[ev.ChatID]; ok {
			res.UserID = adder
			delete(doc.GroupAddedBy, ev.ChatID)
		}

		n := doc.UserGroupCount[res.UserID]
		if n <= 0 {
			return nil
		}
		n--
		doc.UserGroupCount[res.UserID] = n
		res.GroupCount = n

		if n < config.PermanentGroupThreshold && !doc.IsPermanent(res.UserID) {
			if _, had := doc.Premium[res.UserID]; had {
				delete(doc.Premium, res.UserID)
				res.Revoked = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deregister group: %w", err)
	}

	if res.Tracked {
		s.metrics.SetTrackedGroups(groups)
	}
	if res.Revoked {
		s.metrics.RecordRevocation("group_removed")
	}
	slog.Info("bot removed from group",
		"chat_id", ev.ChatID,
		"user_id", res.UserID,
		"tracked", res.Tracked,
		"revoked", res.Revoked,
		"user_groups", res.GroupCount,
	)
	return res, nil
}

// SweepExpired removes time-bounded grants that ended and returns the affected users.
func (s *EntitlementService) SweepExpired(ctx context.Context) ([]int64, error) {
	now := s.now()
	expired := func(doc *domain.Document) []int64 {
		var ids []int64
		for uid, exp := range doc.Premium {
			if !exp.Active(now) {
				ids = append(ids, uid)
			}
		}
		return ids
	}

	if len(expired(s.store.View(ctx))) == 0 {
		return nil, nil
	}

	var removed []int64
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		removed = expired(doc)
		for _, uid := range removed {
			delete(doc.Premium, uid)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweep expired premium: %w", err)
	}

	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	for range removed {
		s.metrics.RecordRevocation("expired")
	}
	return removed, nil
}

// Grant extends userID's premium by d from the later of now and the current
// expiry. Permanent grants are left untouched.
func (s *EntitlementService) Grant(ctx context.Context, userID int64, d time.Duration) (domain.Expiry, error) {
	var out domain.Expiry
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if doc.IsPermanent(userID) {
			return domain.ErrAlreadyPermanent
		}
		out = doc.Premium[userID].Extend(s.now(), d)
		doc.Premium[userID] = out
		return nil
	})
	if err != nil {
		return domain.Expiry{}, fmt.Errorf("grant premium: %w", err)
	}
	s.metrics.RecordGrant("admin")
	return out, nil
}

// Revoke removes any premium grant, permanent or not.
func (s *EntitlementService) Revoke(ctx context.Context, userID int64) error {
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if _, ok := doc.Premium[userID]; !ok {
			return domain.ErrNotFound
		}
		delete(doc.Premium, userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke premium: %w", err)
	}
	s.metrics.RecordRevocation("admin")
	return nil
}

// List returns active grants, permanent first, then by soonest expiry.
func (s *EntitlementService) List(ctx context.Context) []PremiumEntry {
	now := s.now()
	doc := s.store.View(ctx)

	entries := lo.FilterMap(lo.Entries(doc.Premium), func(e lo.Entry[int64, domain.Expiry], _ int) (PremiumEntry, bool) {
		return PremiumEntry{UserID: e.Key, Expiry: e.Value}, e.Value.Active(now)
	})
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Expiry.Permanent != b.Expiry.Permanent {
			return a.Expiry.Permanent
		}
		if a.Expiry.Until != b.Expiry.Until {
			return a.Expiry.Until < b.Expiry.Until
		}
		return a.UserID < b.UserID
	})
	return entries
}

func (s *EntitlementService) Now() time.Time {
	return s.now()
}

var durationPattern = regexp.MustCompile(`^(\d+)([dh])$`)

// ParseDuration parses "<n>d" or "<n>h" with n > 0.
func ParseDuration(raw string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDuration, raw)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDuration, raw)
	}

	unit := time.Hour
	if m[2] == "d" {
		unit = 24 * time.Hour
	}
	return time.Duration(n) * unit, nil
}
