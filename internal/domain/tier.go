package domain

import "fmt"

// Tier is a ranked membership level gating facility access.
type Tier string

const (
	Tier1 Tier = "tier1"
	Tier2 Tier = "tier2"
	Tier3 Tier = "tier3"
)

// TrainerTierMarker is recorded as the tier snapshot on access log entries
// written for trainers, who bypass tier checks.
const TrainerTierMarker = "trainer"

var tierRank = map[Tier]int{
	Tier1: 1,
	Tier2: 2,
	Tier3: 3,
}

// InvalidTierError is returned when a value outside the tier enum is evaluated.
type InvalidTierError struct {
	Value string
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("invalid membership tier %q", e.Value)
}

// ParseTier validates a raw tier string.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierRank[t]; !ok {
		return "", &InvalidTierError{Value: s}
	}
	return t, nil
}

// Rank returns the position of t in the tier ordering, or 0 if t is unknown.
func (t Tier) Rank() int {
	return tierRank[t]
}

// EvaluateTier decides whether a member holding userTier may enter a facility
// requiring requiredTier. A tier satisfies any requirement of equal or lower
// rank.
func EvaluateTier(userTier, requiredTier Tier) (bool, error) {
	userRank, ok := tierRank[userTier]
	if !ok {
		return false, &InvalidTierError{Value: string(userTier)}
	}
	requiredRank, ok := tierRank[requiredTier]
	if !ok {
		return false, &InvalidTierError{Value: string(requiredTier)}
	}
	return userRank >= requiredRank, nil
}
