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

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TFMV/OrganMatchPro/internal/artifact"
	"github.com/TFMV/OrganMatchPro/internal/matcher"
	"github.com/TFMV/OrganMatchPro/internal/records"
	"github.com/TFMV/OrganMatchPro/internal/store"
	"github.com/TFMV/OrganMatchPro/pkg/config"
	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

// ErrNoSource is returned when the server runs without a record store.
var ErrNoSource = errors.New("record source is not configured")

// RecordSource supplies donor and recipient records.
type RecordSource interface {
	Recipient(ctx context.Context, id int64) (records.RecipientRecord, error)
	Donor(ctx context.Context, id int64) (records.DonorRecord, error)
	Donors(ctx context.Context, ids []int64) ([]records.DonorRecord, error)
	AvailableDonors(ctx context.Context) ([]records.DonorRecord, error)
}

// Handler serves the matching API.
type Handler struct {
	source      RecordSource
	matcher     *matcher.Matcher
	artifactDir string
	matching    config.Matching
	logger      utils.Logger
}

// NewHandler wires the API. source may be nil, in which case record
// lookups answer 503.
func NewHandler(source RecordSource, m *matcher.Matcher, cfg *config.Config, logger utils.Logger) *Handler {
	if logger == nil {
		logger = utils.NewNoOpLogger()
	}
	return &Handler{
		source:      source,
		matcher:     m,
		artifactDir: cfg.Model.ArtifactDir,
		matching:    cfg.Matching,
		logger:      logger,
	}
}

// MatchRequest asks for the best donors for one recipient.
type MatchRequest struct {
	RecipientID int64    `json:"recipient_id" binding:"required"`
	TopN        int      `json:"top_n"`
	MinScore    *float64 `json:"min_score"`
}

// MatchResult is a ranked candidate with its display label.
type MatchResult struct {
	matcher.MatchCandidate
	Compatibility string `json:"compatibility"`
}

// PredictRequest scores one donor against one recipient.
type PredictRequest struct {
	DonorID     int64 `json:"donor_id" binding:"required"`
	RecipientID int64 `json:"recipient_id" binding:"required"`
}

// Prediction is the score of one pair.
type Prediction struct {
	DonorID       int64            `json:"donor_id"`
	RecipientID   int64            `json:"recipient_id"`
	MatchScore    float64          `json:"match_score"`
	Method        matcher.Method   `json:"method"`
	Reason        string           `json:"reason,omitempty"`
	Compatibility string           `json:"compatibility"`
	OrgansMatch   records.OrganSet `json:"organs_match,omitempty"`
}

// BatchPredictRequest scores many donors against one recipient.
type BatchPredictRequest struct {
	RecipientID int64   `json:"recipient_id" binding:"required"`
	DonorIDs    []int64 `json:"donor_ids"`
}

// FindMatchesHandler ranks the available donors for a recipient.
func (h *Handler) FindMatchesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, http.StatusBadRequest, err)
			return
		}
		if h.source == nil {
			utils.SendError(c, http.StatusServiceUnavailable, ErrNoSource)
			return
		}

		ctx := c.Request.Context()
		recipient, err := h.source.Recipient(ctx, req.RecipientID)
		if err != nil {
			h.fail(c, err)
			return
		}
		donors, err := h.source.AvailableDonors(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}

		topN := req.TopN
		if topN <= 0 {
			topN = h.matching.TopN
		}
		minScore := h.matching.MinScore
		if req.MinScore != nil {
			minScore = *req.MinScore
		}

		candidates := h.matcher.FindMatches(recipient, donors, topN)
		results := make([]MatchResult, 0, len(candidates))
		for _, cand := range candidates {
			if cand.FinalScore < minScore {
				continue
			}
			results = append(results, MatchResult{
				MatchCandidate: cand,
				Compatibility:  matcher.MatchLevel(cand.FinalScore),
			})
		}

		utils.SendJSON(c, http.StatusOK, fmt.Sprintf("%d matches found", len(results)), results)
	}
}

// PredictHandler scores a single donor/recipient pair.
func (h *Handler) PredictHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PredictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, http.StatusBadRequest, err)
			return
		}
		if h.source == nil {
			utils.SendError(c, http.StatusServiceUnavailable, ErrNoSource)
			return
		}

		ctx := c.Request.Context()
		donor, err := h.source.Donor(ctx, req.DonorID)
		if err != nil {
			h.fail(c, err)
			return
		}
		recipient, err := h.source.Recipient(ctx, req.RecipientID)
		if err != nil {
			h.fail(c, err)
			return
		}

		utils.SendJSON(c, http.StatusOK, "", h.predict(donor, recipient))
	}
}

// BatchPredictHandler scores a list of donors against one recipient,
// best first. Unknown donor ids are skipped.
func (h *Handler) BatchPredictHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BatchPredictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, http.StatusBadRequest, err)
			return
		}
		if h.source == nil {
			utils.SendError(c, http.StatusServiceUnavailable, ErrNoSource)
			return
		}

		ctx := c.Request.Context()
		recipient, err := h.source.Recipient(ctx, req.RecipientID)
		if err != nil {
			h.fail(c, err)
			return
		}
		donors, err := h.source.Donors(ctx, req.DonorIDs)
		if err != nil {
			h.fail(c, err)
			return
		}

		results := make([]Prediction, 0, len(donors))
		for _, d := range donors {
			results = append(results, h.predict(d, recipient))
		}
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].MatchScore != results[j].MatchScore {
				return results[i].MatchScore > results[j].MatchScore
			}
			return results[i].DonorID < results[j].DonorID
		})

		utils.SendJSON(c, http.StatusOK, fmt.Sprintf("%d donors scored", len(results)), gin.H{
			"recipient_id": req.RecipientID,
			"results":      results,
			"total":        len(results),
		})
	}
}

// ModelStatusHandler reports the served model and the artifacts on disk.
func (h *Handler) ModelStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SendJSON(c, http.StatusOK, "", gin.H{
			"model":     h.matcher.Scorer().Status(),
			"artifacts": artifact.Inspect(h.artifactDir),
		})
	}
}

// HealthCheckHandler handles health check requests
func HealthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		zuluTime := time.Now().UTC().Format(time.RFC3339)
		c.JSON(http.StatusOK, gin.H{
			"status":   "OK",
			"zuluTime": zuluTime,
		})
	}
}

func (h *Handler) predict(donor records.DonorRecord, recipient records.RecipientRecord) Prediction {
	res := h.matcher.Scorer().ScorePair(donor, recipient)
	return Prediction{
		DonorID:       donor.ID,
		RecipientID:   recipient.ID,
		MatchScore:    res.Score,
		Method:        res.Method,
		Reason:        res.Reason,
		Compatibility: matcher.CompatibilityLevel(res.Score),
		OrgansMatch:   donor.Organs.Intersect(recipient.Organs),
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		utils.SendError(c, http.StatusNotFound, err)
		return
	}
	h.logger.WithError(err).Error("Request failed", map[string]interface{}{"path": c.FullPath()})
	utils.SendError(c, http.StatusInternalServerError, errors.New("internal error"))
}
