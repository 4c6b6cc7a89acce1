package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBloodGroup(t *testing.T) {
	// Normalizes whitespace and case
	bg, err := ParseBloodGroup(" ab+ ")
	require.NoError(t, err)
	require.Equal(t, ABPos, bg)

	bg, err = ParseBloodGroup("O-")
	require.NoError(t, err)
	require.Equal(t, ONeg, bg)

	_, err = ParseBloodGroup("C+")
	require.Error(t, err)

	_, err = ParseBloodGroup("")
	require.Error(t, err)
}

func TestCanDonateTo(t *testing.T) {
	// Universal donor
	for _, recipient := range []BloodGroup{ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos} {
		require.True(t, CanDonateTo(ONeg, recipient), "O- should serve %s", recipient)
	}

	// Universal recipient
	for _, donor := range []BloodGroup{ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos} {
		require.True(t, CanDonateTo(donor, ABPos), "AB+ should accept %s", donor)
	}

	// AB+ serves only itself
	require.True(t, CanDonateTo(ABPos, ABPos))
	require.False(t, CanDonateTo(ABPos, ONeg))
	require.False(t, CanDonateTo(ABPos, APos))

	// Rh-negative recipients never take Rh-positive blood
	require.False(t, CanDonateTo(OPos, ONeg))
	require.False(t, CanDonateTo(APos, ANeg))
	require.False(t, CanDonateTo(BPos, ABNeg))

	// ABO mismatches
	require.False(t, CanDonateTo(ANeg, BPos))
	require.False(t, CanDonateTo(BNeg, APos))

	require.True(t, CanDonateTo(APos, ABPos))
	require.True(t, CanDonateTo(BNeg, BPos))

	// Unknown groups are never compatible
	require.False(t, CanDonateTo("X+", APos))
	require.False(t, CanDonateTo(ONeg, "X+"))
}

func TestCompatibleDonors(t *testing.T) {
	// O- recipients can only take O-
	donors := CompatibleDonors(ONeg)
	require.Equal(t, []BloodGroup{ONeg}, donors)

	// AB+ recipients can take everything
	donors = CompatibleDonors(ABPos)
	require.Len(t, donors, 8)

	// The inverse relation holds for every pair
	for donor := range donorCompatibility {
		for _, recipient := range donorCompatibility[donor] {
			require.Contains(t, CompatibleDonors(recipient), donor)
		}
	}
}
