package matcher

import "github.com/TFMV/OrganMatchPro/internal/records"

// canDonateTo maps a donor blood type to the recipient types it can supply.
var canDonateTo = map[records.BloodType][]records.BloodType{
	"O-":  {"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"},
	"O+":  {"O+", "A+", "B+", "AB+"},
	"A-":  {"A-", "A+", "AB-", "AB+"},
	"A+":  {"A+", "AB+"},
	"B-":  {"B-", "B+", "AB-", "AB+"},
	"B+":  {"B+", "AB+"},
	"AB-": {"AB-", "AB+"},
	"AB+": {"AB+"},
}

// BloodCompatible reports whether a donor of type donor can supply a
// recipient of type recipient. Unknown types are never compatible.
func BloodCompatible(donor, recipient records.BloodType) bool {
	for _, t := range canDonateTo[donor] {
		if t == recipient {
			return true
		}
	}
	return false
}
