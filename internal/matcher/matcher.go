// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package matcher

import (
	"sort"
	"time"

	"github.com/TFMV/OrganMatchPro/internal/metrics"
	"github.com/TFMV/OrganMatchPro/internal/records"
	"github.com/TFMV/OrganMatchPro/internal/standardizer"
	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

// DefaultTopN is used when a caller asks for zero or fewer candidates.
const DefaultTopN = 10

// MatchCandidate represents a ranked donor for one recipient
type MatchCandidate struct {
	Donor           records.DonorRecord `json:"donor"`
	BaseScore       float64             `json:"ml_score"`
	FinalScore      float64             `json:"final_score"`
	Method          Method              `json:"method"`
	Reason          string              `json:"reason,omitempty"`
	OrgansMatched   records.OrganSet    `json:"organs_matched"`
	BloodCompatible bool                `json:"blood_match"`
	SameLocation    bool                `json:"location_same"`
}

// Matcher ranks donors for a recipient.
type Matcher struct {
	scorer *Scorer
	logger utils.Logger
}

// NewMatcher creates a matcher backed by scorer.
func NewMatcher(scorer *Scorer, logger utils.Logger) *Matcher {
	if logger == nil {
		logger = utils.NewNoOpLogger()
	}
	return &Matcher{scorer: scorer, logger: logger}
}

// Scorer returns the scorer the matcher ranks with.
func (m *Matcher) Scorer() *Scorer {
	return m.scorer
}

// FindMatches finds donors offering at least one organ the recipient needs,
// scores them, applies the business rules and returns the best topN ordered
// by final score descending. Equal scores are ordered by donor ID.
func (m *Matcher) FindMatches(recipient records.RecipientRecord, donors []records.DonorRecord, topN int) []MatchCandidate {
	start := time.Now()
	defer func() { metrics.RankingDuration.Observe(time.Since(start).Seconds()) }()

	if topN <= 0 {
		topN = DefaultTopN
	}

	candidates := make([]MatchCandidate, 0, len(donors))
	for _, donor := range donors {
		overlap := donor.Organs.Intersect(recipient.Organs)
		if len(overlap) == 0 {
			continue
		}

		res := m.scorer.ScorePair(donor, recipient)
		candidates = append(candidates, MatchCandidate{
			Donor:           donor,
			BaseScore:       res.Score,
			FinalScore:      Adjust(res.Score, donor, recipient),
			Method:          res.Method,
			Reason:          res.Reason,
			OrgansMatched:   overlap,
			BloodCompatible: BloodCompatible(donor.BloodType, recipient.BloodType),
			SameLocation:    standardizer.SameCity(donor.City, recipient.City),
		})
	}

	m.logger.Debug("Candidates scored", map[string]interface{}{
		"recipient_id": recipient.ID,
		"donors":       len(donors),
		"candidates":   len(candidates),
	})

	// Sort candidates by score in descending order
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FinalScore != candidates[j].FinalScore {
			return candidates[i].FinalScore > candidates[j].FinalScore
		}
		return candidates[i].Donor.ID < candidates[j].Donor.ID
	})

	// If the number of candidates exceeds the requested TopN, truncate the list
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	metrics.CandidatesReturned.Observe(float64(len(candidates)))
	return candidates
}

// MatchLevel labels a final ranking score. Scores of 90 and above are
// "Excellent"; below that it agrees with CompatibilityLevel.
func MatchLevel(finalScore float64) string {
	if finalScore >= 90 {
		return "Excellent"
	}
	return CompatibilityLevel(finalScore)
}

// CompatibilityLevel labels a single-pair prediction score for display.
func CompatibilityLevel(score float64) string {
	switch {
	case score >= 75:
		return "Good"
	case score >= 60:
		return "Fair"
	case score >= 40:
		return "Poor"
	}
	return "Not Compatible"
}
