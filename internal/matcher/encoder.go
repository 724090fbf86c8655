package matcher

import (
	"strings"

	"github.com/TFMV/OrganMatchPro/internal/records"
)

// FeatureVector is the ordered categorical encoding of a record:
// city, gender, race, age, blood type, then the role fields (health,
// smoking, drug use, alcohol use and average sleep for donors; urgency for
// recipients). Missing values are empty strings.
type FeatureVector []string

// String joins the fields the way training rows are joined.
func (f FeatureVector) String() string {
	return strings.Join(f, ",")
}

var fieldCleaner = strings.NewReplacer(",", " ", ";", " ", "|", " ")

// Encode returns the feature vector of rec. It never fails.
func Encode(rec records.Record) FeatureVector {
	fields := records.Fields(rec)
	out := make(FeatureVector, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(fieldCleaner.Replace(f))
	}
	return out
}
