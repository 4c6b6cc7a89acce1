package domain

import (
	"strings"
	"time"
)

// NormalizeOrganType canonicalizes a free-form organ type for comparison and
// storage ("  Kidney " -> "kidney").
func NormalizeOrganType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// OrganTypeMatches reports whether an organ of the given type satisfies the
// requested organ type. Case-insensitive exact match.
func OrganTypeMatches(organType, requested string) bool {
	return NormalizeOrganType(organType) == NormalizeOrganType(requested) &&
		NormalizeOrganType(organType) != ""
}

// UnitUsable reports whether a donation unit with the given expiry is still
// usable at the given instant. A unit expiring exactly at now is not usable.
func UnitUsable(expiresAt, now time.Time) bool {
	return expiresAt.After(now)
}
