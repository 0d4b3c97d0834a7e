package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAccessDenied        = errors.New("access denied")
	ErrBlacklisted         = errors.New("user is blacklisted")
	ErrNoReply             = errors.New("no reply target")
	ErrNoTargets           = errors.New("no dispatch targets")
	ErrUnsupportedContent  = errors.New("unsupported message content")
	ErrMainOwnerImmutable  = errors.New("main owner cannot be changed at runtime")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInvalidID           = errors.New("invalid telegram id")
	ErrAlreadyPermanent    = errors.New("premium is already permanent")
	ErrNoSession           = errors.New("no active session")
	ErrDocumentUnreadable  = errors.New("document unreadable")
	ErrBackupSourceMissing = errors.New("nothing to back up")
)

// CooldownError is returned when a gated feature is used inside the window.
type CooldownError struct {
	Feature   Feature
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s cooldown: %s remaining", e.Feature, e.Remaining)
}

// Minutes and seconds left, rounded up to the next whole second.
func (e *CooldownError) Parts() (minutes, seconds int) {
	total := int((e.Remaining + time.Second - 1) / time.Second)
	return total / 60, total % 60
}
