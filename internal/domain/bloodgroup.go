package domain

import (
	"strings"

	"github.com/pkg/errors"
)

// BloodGroup is an ABO/Rh blood group such as "A+" or "O-".
type BloodGroup string

// All ABO/Rh blood groups.
const (
	ONeg  BloodGroup = "O-"
	OPos  BloodGroup = "O+"
	ANeg  BloodGroup = "A-"
	APos  BloodGroup = "A+"
	BNeg  BloodGroup = "B-"
	BPos  BloodGroup = "B+"
	ABNeg BloodGroup = "AB-"
	ABPos BloodGroup = "AB+"
)

// donorCompatibility maps a donor group to the recipient groups it can serve,
// standard ABO/Rh donor-compatibility direction.
var donorCompatibility = map[BloodGroup][]BloodGroup{
	ONeg:  {ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos},
	OPos:  {OPos, APos, BPos, ABPos},
	ANeg:  {ANeg, APos, ABNeg, ABPos},
	APos:  {APos, ABPos},
	BNeg:  {BNeg, BPos, ABNeg, ABPos},
	BPos:  {BPos, ABPos},
	ABNeg: {ABNeg, ABPos},
	ABPos: {ABPos},
}

// ParseBloodGroup normalizes and validates a blood group string.
func ParseBloodGroup(s string) (BloodGroup, error) {
	bg := BloodGroup(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := donorCompatibility[bg]; !ok {
		return "", errors.Errorf("invalid blood group %q", s)
	}
	return bg, nil
}

// IsValidBloodGroup reports whether s is a recognized ABO/Rh group.
func IsValidBloodGroup(s string) bool {
	_, err := ParseBloodGroup(s)
	return err == nil
}

// CanDonateTo reports whether blood from the donor group may be given to a
// recipient of the given group.
func CanDonateTo(donor, recipient BloodGroup) bool {
	for _, r := range donorCompatibility[donor] {
		if r == recipient {
			return true
		}
	}
	return false
}

// CompatibleDonors returns the donor groups whose blood may be given to a
// recipient of the given group. The inverse of CanDonateTo, used to filter
// available inventory for a request.
func CompatibleDonors(recipient BloodGroup) []BloodGroup {
	var donors []BloodGroup
	for donor := range donorCompatibility {
		if CanDonateTo(donor, recipient) {
			donors = append(donors, donor)
		}
	}
	return donors
}
