package model

import "strings"

type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
)

func (t Tier) String() string { return string(t) }

// ParseTier normalizes input; empty => free.
// Returns (value, true) if valid; otherwise (free, false).
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "free":
		return TierFree, true
	case "starter":
		return TierStarter, true
	case "pro":
		return TierPro, true
	default:
		return TierFree, false
	}
}

func (t Tier) Valid() bool {
	return t == TierFree || t == TierStarter || t == TierPro
}

// Paid reports whether the tier maps to a provider subscription.
func (t Tier) Paid() bool {
	return t == TierStarter || t == TierPro
}
