package domain

// Tier is a privilege level, ordered from weakest to strongest.
type Tier int

const (
	TierBlacklisted Tier = iota
	TierUser
	TierPremium
	TierDelegatedOwner
	TierMainOwner
)

func (t Tier) String() string {
	switch t {
	case TierBlacklisted:
		return "blacklisted"
	case TierUser:
		return "user"
	case TierPremium:
		return "premium"
	case TierDelegatedOwner:
		return "delegated_owner"
	case TierMainOwner:
		return "main_owner"
	default:
		return "unknown"
	}
}

func (t Tier) AtLeast(min Tier) bool {
	return t >= min
}

