package matcher

import (
	"math"

	"github.com/TFMV/OrganMatchPro/internal/records"
	"github.com/TFMV/OrganMatchPro/internal/standardizer"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Adjust applies the business rules to a base score:
// blood compatibility +10, different city -5, donor health +8/+4,
// recipient urgency +12/+8. The result is clamped to [0,100].
func Adjust(base float64, donor records.DonorRecord, recipient records.RecipientRecord) float64 {
	score := base

	if BloodCompatible(donor.BloodType, recipient.BloodType) {
		score += 10
	}

	if !standardizer.SameCity(donor.City, recipient.City) {
		score -= 5
	}

	switch donor.Health {
	case records.HealthExcellent:
		score += 8
	case records.HealthGood:
		score += 4
	}

	switch recipient.Urgency {
	case records.UrgencyCritical:
		score += 12
	case records.UrgencyHigh:
		score += 8
	}

	return Clamp(round2(score))
}

// FallbackScore is the model-free scorer: 50, +20 blood compatible,
// +15 same city, +10/+5 donor health, +5 for high or critical urgency,
// capped at 100. It is pure and total.
func FallbackScore(donor records.DonorRecord, recipient records.RecipientRecord) float64 {
	score := 50.0

	if BloodCompatible(donor.BloodType, recipient.BloodType) {
		score += 20
	}

	if standardizer.SameCity(donor.City, recipient.City) {
		score += 15
	}

	switch donor.Health {
	case records.HealthExcellent:
		score += 10
	case records.HealthGood:
		score += 5
	}

	if recipient.Urgency == records.UrgencyHigh || recipient.Urgency == records.UrgencyCritical {
		score += 5
	}

	return Clamp(score)
}

// Clamp limits s to [0,100]; NaN maps to 0.
func Clamp(s float64) float64 {
	if math.IsNaN(s) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, s))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
