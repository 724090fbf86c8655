package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/OrganMatchPro/internal/matcher"
	"github.com/TFMV/OrganMatchPro/internal/records"
	"github.com/TFMV/OrganMatchPro/internal/store"
	"github.com/TFMV/OrganMatchPro/pkg/config"
	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

type fakeSource struct {
	recipients map[int64]records.RecipientRecord
	donors     map[int64]records.DonorRecord
	err        error
}

func (f *fakeSource) Recipient(_ context.Context, id int64) (records.RecipientRecord, error) {
	if f.err != nil {
		return records.RecipientRecord{}, f.err
	}
	r, ok := f.recipients[id]
	if !ok {
		return r, fmt.Errorf("recipient %d: %w", id, store.ErrNotFound)
	}
	return r, nil
}

func (f *fakeSource) Donor(_ context.Context, id int64) (records.DonorRecord, error) {
	d, ok := f.donors[id]
	if !ok {
		return d, fmt.Errorf("donor %d: %w", id, store.ErrNotFound)
	}
	return d, nil
}

func (f *fakeSource) Donors(_ context.Context, ids []int64) ([]records.DonorRecord, error) {
	var out []records.DonorRecord
	for _, id := range ids {
		if d, ok := f.donors[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeSource) AvailableDonors(_ context.Context) ([]records.DonorRecord, error) {
	var out []records.DonorRecord
	for _, d := range f.donors {
		if d.Available {
			out = append(out, d)
		}
	}
	return out, nil
}

func newSource() *fakeSource {
	donor := func(id int64, blood, city, health string, available bool, organs ...string) records.DonorRecord {
		return records.NewDonor(records.DonorRecord{
			Person:    records.Person{ID: id, City: city, BloodType: records.BloodType(blood)},
			Organs:    records.NewOrganSet(organs...),
			Health:    records.HealthStatus(health),
			Available: available,
		})
	}
	return &fakeSource{
		recipients: map[int64]records.RecipientRecord{
			100: records.NewRecipient(records.RecipientRecord{
				Person:  records.Person{ID: 100, City: "Seattle", BloodType: "A+"},
				Organs:  records.NewOrganSet("kidney"),
				Urgency: records.UrgencyLow,
			}),
		},
		donors: map[int64]records.DonorRecord{
			1: donor(1, "O-", "Seattle", "excellent", true, "kidney"), // 100
			2: donor(2, "B+", "Seattle", "excellent", true, "kidney"), // 83
			3: donor(3, "B+", "Boston", "poor", true, "kidney"),       // 45
			4: donor(4, "O-", "Seattle", "excellent", false, "kidney"),
			5: donor(5, "O-", "Seattle", "excellent", true, "liver"),
		},
	}
}

func setupRouter(t *testing.T, src RecordSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := utils.NewTestLogger(t)
	cfg := config.Default()
	cfg.Model.ArtifactDir = t.TempDir()

	m := matcher.NewMatcher(matcher.NewScorer(logger), logger)
	router := gin.New()
	SetupRoutes(router, NewHandler(src, m, cfg, logger), logger)
	return router
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealthCheck(t *testing.T) {
	w := do(setupRouter(t, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t, nil)
	do(router, http.MethodGet, "/health", "")
	w := do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "organmatch_http_requests_total")
}

func TestFindMatches(t *testing.T) {
	router := setupRouter(t, newSource())

	w := do(router, http.MethodPost, "/api/v1/matches", `{"recipient_id": 100}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results []MatchResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &results))
	require.Len(t, results, 3)
	assert.Equal(t, int64(1), results[0].Donor.ID)
	assert.Equal(t, 100.0, results[0].FinalScore)
	assert.Equal(t, "Excellent", results[0].Compatibility)
	assert.Equal(t, matcher.MethodFallback, results[0].Method)
	assert.Equal(t, int64(2), results[1].Donor.ID)
	assert.Equal(t, int64(3), results[2].Donor.ID)
	assert.Equal(t, "Poor", results[2].Compatibility)

	w = do(router, http.MethodPost, "/api/v1/matches", `{"recipient_id": 100, "top_n": 1}`)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &results))
	assert.Len(t, results, 1)

	w = do(router, http.MethodPost, "/api/v1/matches", `{"recipient_id": 100, "min_score": 50}`)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &results))
	assert.Len(t, results, 2)
}

func TestFindMatches_Errors(t *testing.T) {
	router := setupRouter(t, newSource())

	w := do(router, http.MethodPost, "/api/v1/matches", `{"recipient_id": 999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", decode(t, w).Status)

	w = do(router, http.MethodPost, "/api/v1/matches", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/v1/matches", `{"recipient_id": "x"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/matches", strings.NewReader("recipient_id=100"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	failing := setupRouter(t, &fakeSource{err: errors.New("db down")})
	w = do(failing, http.MethodPost, "/api/v1/matches", `{"recipient_id": 100}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")

	w = do(setupRouter(t, nil), http.MethodPost, "/api/v1/matches", `{"recipient_id": 100}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPredict(t *testing.T) {
	router := setupRouter(t, newSource())

	w := do(router, http.MethodPost, "/api/v1/predict", `{"donor_id": 1, "recipient_id": 100}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var p Prediction
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &p))
	assert.Equal(t, int64(1), p.DonorID)
	assert.Equal(t, 95.0, p.MatchScore)
	assert.Equal(t, "Good", p.Compatibility)
	assert.Equal(t, matcher.MethodFallback, p.Method)
	assert.Equal(t, matcher.ReasonNoModel, p.Reason)
	assert.Equal(t, records.OrganSet{"kidney"}, p.OrgansMatch)

	w = do(router, http.MethodPost, "/api/v1/predict", `{"donor_id": 42, "recipient_id": 100}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchPredict(t *testing.T) {
	router := setupRouter(t, newSource())

	w := do(router, http.MethodPost, "/api/v1/predict/batch", `{"recipient_id": 100, "donor_ids": [3, 42, 1, 5]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		RecipientID int64        `json:"recipient_id"`
		Results     []Prediction `json:"results"`
		Total       int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Results, 3)
	assert.Equal(t, int64(1), body.Results[0].DonorID)
	assert.Equal(t, int64(5), body.Results[1].DonorID)
	assert.Equal(t, int64(3), body.Results[2].DonorID)
	assert.Empty(t, body.Results[1].OrgansMatch)
}

func TestModelStatus(t *testing.T) {
	w := do(setupRouter(t, nil), http.MethodGet, "/api/v1/model/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Model struct {
			Loaded bool `json:"loaded"`
		} `json:"model"`
		Artifacts struct {
			Complete bool `json:"complete"`
		} `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.False(t, data.Model.Loaded)
	assert.False(t, data.Artifacts.Complete)
}
