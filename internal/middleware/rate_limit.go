package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RateLimiter is a per-user sliding window counter.
type RateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	limit     int
	events    map[int64][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		window: window,
		limit:  limit,
		events: make(map[int64][]time.Time),
		now:    time.Now,
	}
}

// Allow records an event for id and reports whether it is within the limit.
func (rl *RateLimiter) Allow(id int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	if now.Sub(rl.lastSweep) >= rl.window {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	events := trimBefore(rl.events[id], cutoff)
	if len(events) >= rl.limit {
		rl.events[id] = events
		return false
	}
	rl.events[id] = append(events, now)
	return true
}

// sweep drops users whose whole window has expired.
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for id, events := range rl.events {
		if len(trimBefore(events, cutoff)) == 0 {
			delete(rl.events, id)
		}
	}
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.events)
}

func trimBefore(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	return events[i:]
}

// RateLimit returns middleware that drops private messages from users over
// the limit. Owners are never limited.
func RateLimit(rl *RateLimiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.Chat.Type != models.ChatTypePrivate {
				next(ctx, b, update)
				return
			}
			if actor, ok := GetActor(ctx); ok && actor.IsAnyOwner() {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !rl.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID, "limit", rl.limit)
				return
			}

			next(ctx, b, update)
		}
	}
}
