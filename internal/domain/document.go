package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// DefaultCooldownMinutes is the global cooldown window used on first run.
const DefaultCooldownMinutes = 15

// Document is the whole persisted bot state.
type Document struct {
	Premium        map[int64]Expiry `json:"premium"`
	Owner          IDSet            `json:"owner"`
	Groups         IDSet            `json:"groups"`
	Users          IDSet            `json:"users"`
	Blacklist      IDSet            `json:"blacklist"`
	UserGroupCount map[int64]int    `json:"user_group_count"`
	GroupAddedBy   map[int64]int64  `json:"group_added_by,omitempty"`
	Settings       Settings         `json:"settings"`
	Cooldowns      Cooldowns        `json:"cooldowns"`
}

type Settings struct {
	Cooldown CooldownSettings `json:"cooldown"`
}

type CooldownSettings struct {
	Default int `json:"default" validate:"gte=1"`
}

// Cooldowns holds last-use epoch seconds per user, one map per gated feature.
type Cooldowns struct {
	Share     map[int64]int64 `json:"share"`
	Broadcast map[int64]int64 `json:"broadcast"`
}

type Feature string

const (
	FeatureShare     Feature = "share"
	FeatureBroadcast Feature = "broadcast"
)

// NewDocument returns the default shape written on first run.
func NewDocument() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize fills absent fields with defaults and repairs values that
// would break invariants (duplicate set members, negative counts).
func (d *Document) Normalize() {
	if d.Premium == nil {
		d.Premium = make(map[int64]Expiry)
	}
	if d.UserGroupCount == nil {
		d.UserGroupCount = make(map[int64]int)
	}
	if d.GroupAddedBy == nil {
		d.GroupAddedBy = make(map[int64]int64)
	}
	if d.Cooldowns.Share == nil {
		d.Cooldowns.Share = make(map[int64]int64)
	}
	if d.Cooldowns.Broadcast == nil {
		d.Cooldowns.Broadcast = make(map[int64]int64)
	}
	if d.Settings.Cooldown.Default <= 0 {
		d.Settings.Cooldown.Default = DefaultCooldownMinutes
	}

	d.Owner = d.Owner.normalized()
	d.Groups = d.Groups.normalized()
	d.Users = d.Users.normalized()
	d.Blacklist = d.Blacklist.normalized()

	for uid, n := range d.UserGroupCount {
		if n < 0 {
			d.UserGroupCount[uid] = 0
		}
	}
}

var documentValidator = validator.New()

// Validate checks field rules after Normalize.
func (d *Document) Validate() error {
	if err := documentValidator.Struct(d); err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	return nil
}

// IsPremium reports whether id holds a permanent or a not yet expired grant.
func (d *Document) IsPremium(id int64, now time.Time) bool {
	exp, ok := d.Premium[id]
	return ok && exp.Active(now)
}

func (d *Document) IsPermanent(id int64) bool {
	return d.Premium[id].Permanent
}

func (d *Document) IsDelegatedOwner(id int64) bool {
	return d.Owner.Contains(id)
}

func (d *Document) IsBlacklisted(id int64) bool {
	return d.Blacklist.Contains(id)
}

func (d *Document) GroupCount(id int64) int {
	return d.UserGroupCount[id]
}

// CooldownWindow is the global cooldown as a duration.
func (d *Document) CooldownWindow() time.Duration {
	minutes := d.Settings.Cooldown.Default
	if minutes <= 0 {
		minutes = DefaultCooldownMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// LastUse returns the stored last-use stamp for a feature.
func (d *Document) LastUse(f Feature, id int64) (time.Time, bool) {
	ts, ok := d.cooldownMap(f)[id]
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

func (d *Document) StampUse(f Feature, id int64, now time.Time) {
	d.cooldownMap(f)[id] = now.Unix()
}

func (d *Document) cooldownMap(f Feature) map[int64]int64 {
	if f == FeatureBroadcast {
		if d.Cooldowns.Broadcast == nil {
			d.Cooldowns.Broadcast = make(map[int64]int64)
		}
		return d.Cooldowns.Broadcast
	}
	if d.Cooldowns.Share == nil {
		d.Cooldowns.Share = make(map[int64]int64)
	}
	return d.Cooldowns.Share
}

// Recipients returns a deduplicated copy of the targets for a feature.
func (d *Document) Recipients(f Feature) []int64 {
	if f == FeatureBroadcast {
		return lo.Uniq(d.Users)
	}
	return lo.Uniq(d.Groups)
}
