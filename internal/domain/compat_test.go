package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrganTypeMatches(t *testing.T) {
	require.True(t, OrganTypeMatches("kidney", "kidney"))
	require.True(t, OrganTypeMatches("Kidney", "kidney"))
	require.True(t, OrganTypeMatches("  LIVER ", "liver"))

	require.False(t, OrganTypeMatches("kidney", "liver"))
	require.False(t, OrganTypeMatches("", ""))
	require.False(t, OrganTypeMatches("kidney", ""))
}

func TestUnitUsable(t *testing.T) {
	now := time.Now()

	require.True(t, UnitUsable(now.Add(time.Hour), now))
	require.False(t, UnitUsable(now.Add(-time.Hour), now))

	// A unit expiring exactly now is no longer usable
	require.False(t, UnitUsable(now, now))
}
