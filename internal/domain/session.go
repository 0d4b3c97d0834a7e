package domain

import "time"

// ChatSession binds a user to the owner receiving their relayed messages.
// Sessions live in memory only.
type ChatSession struct {
	UserID    int64
	OwnerID   int64
	Active    bool
	StartedAt time.Time
}
