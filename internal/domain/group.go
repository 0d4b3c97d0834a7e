package domain

// MembershipEvent is a change of the bot's own status in a group.
type MembershipEvent struct {
	ChatID        int64
	ChatTitle     string
	ActorID       int64
	ActorName     string
	ActorUsername string
}

// Membership outcomes for a bot join.
type JoinOutcome int

const (
	JoinAlreadyTracked JoinOutcome = iota
	JoinTooSmall
	JoinExtended
	JoinPermanent
)

func (o JoinOutcome) String() string {
	switch o {
	case JoinAlreadyTracked:
		return "already_tracked"
	case JoinTooSmall:
		return "too_small"
	case JoinExtended:
		return "extended"
	case JoinPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}
