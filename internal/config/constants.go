package config

import "time"

const (
	// Group membership rewards
	MinGroupMembers         = 20
	PermanentGroupThreshold = 10
	PremiumPerGroup         = 48 * time.Hour

	// sharemsg is open to users with at least this many attributed groups
	ShareGroupFallback = 2

	// Dispatch pacing
	ResendPace  = 300 * time.Millisecond
	ForwardPace = 15 * time.Second

	// Premium expiry sweep
	ExpirySweepInterval = 60 * time.Second

	// Private message flood limit per user, owners exempt
	MessagesPerMinute = 30

	// Best-effort notification timeout
	NotifyTimeout = 10 * time.Second

	// Telegram limits
	MaxTelegramMessageLen = 4096
	MaxCaptionLen         = 1024

	// Backup attachment name
	BackupFileName = "data-backup.json"

	// Metrics listener shutdown grace
	MetricsShutdownTimeout = 5 * time.Second

	// Archived backups older than this are pruned
	BackupRetention = 30 * 24 * time.Hour
)
