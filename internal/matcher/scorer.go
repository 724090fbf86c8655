package matcher

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TFMV/OrganMatchPro/internal/artifact"
	"github.com/TFMV/OrganMatchPro/internal/metrics"
	"github.com/TFMV/OrganMatchPro/internal/records"
	"github.com/TFMV/OrganMatchPro/pkg/tfidf"
	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

// Method names the path that produced a score.
type Method string

const (
	MethodML       Method = "ml"
	MethodFallback Method = "fallback"
)

// Fallback reasons, also used as metric labels.
const (
	ReasonNoModel = "model not loaded"
	ReasonMLError = "model scoring failed"
)

// ScoreResult is the outcome of scoring one pair. Reason is set only when
// the fallback path was taken.
type ScoreResult struct {
	Score  float64 `json:"score"`
	Method Method  `json:"method"`
	Reason string  `json:"reason,omitempty"`
}

// ModelStatus describes the model a Scorer is currently serving.
type ModelStatus struct {
	Loaded         bool      `json:"loaded"`
	RunID          string    `json:"run_id,omitempty"`
	TrainedAt      time.Time `json:"trained_at,omitempty"`
	Rows           int       `json:"rows,omitempty"`
	VocabularySize int       `json:"vocabulary_size,omitempty"`
}

// Scorer produces pair scores from the trained TF-IDF model and falls back
// to FallbackScore whenever the model is absent or fails. Scoring is safe
// for concurrent use; reloads are serialized and swap the model atomically,
// so a scoring call sees either the old or the new model, never a mix.
type Scorer struct {
	mu     sync.Mutex
	model  atomic.Pointer[artifact.Set]
	logger utils.Logger
}

// NewScorer returns a scorer with no model loaded.
func NewScorer(logger utils.Logger) *Scorer {
	if logger == nil {
		logger = utils.NewNoOpLogger()
	}
	return &Scorer{logger: logger}
}

// Load reads the active version under root. On failure the previously
// served model, if any, stays in place.
func (s *Scorer) Load(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := artifact.Load(root)
	if err != nil {
		s.logger.Warn("Model artifacts unavailable", map[string]interface{}{
			"root":  root,
			"error": err.Error(),
		})
		return err
	}
	s.store(set)
	s.logger.Info("Model loaded", map[string]interface{}{
		"run_id":     set.Manifest.RunID,
		"vocabulary": set.Vectorizer.Size(),
		"rows":       set.Manifest.Rows,
	})
	return nil
}

// Use installs an in-memory artifact set.
func (s *Scorer) Use(set *artifact.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(set)
	return nil
}

// Unload drops the served model; subsequent scores use the fallback path.
func (s *Scorer) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Store(nil)
	metrics.ModelLoadedTimestamp.Set(0)
}

func (s *Scorer) store(set *artifact.Set) {
	s.model.Store(set)
	if !set.Manifest.TrainedAt.IsZero() {
		metrics.ModelLoadedTimestamp.Set(float64(set.Manifest.TrainedAt.Unix()))
	}
}

// Status reports the served model.
func (s *Scorer) Status() ModelStatus {
	set := s.model.Load()
	if set == nil {
		return ModelStatus{}
	}
	return ModelStatus{
		Loaded:         true,
		RunID:          set.Manifest.RunID,
		TrainedAt:      set.Manifest.TrainedAt,
		Rows:           set.Manifest.Rows,
		VocabularySize: set.Vectorizer.Size(),
	}
}

// ScorePair scores a donor against a recipient. It never fails: any
// problem on the model path yields the fallback score with a reason.
func (s *Scorer) ScorePair(donor records.DonorRecord, recipient records.RecipientRecord) ScoreResult {
	res, err := s.ScorePairStrict(donor, recipient)
	if err == nil {
		return res
	}

	reason := ReasonMLError
	if errors.Is(err, artifact.ErrUnavailable) {
		reason = ReasonNoModel
	}
	s.logger.Debug("Using fallback score", map[string]interface{}{
		"donor_id":     donor.ID,
		"recipient_id": recipient.ID,
		"error":        err.Error(),
	})
	metrics.FallbacksTotal.WithLabelValues(reason).Inc()
	metrics.ScoresTotal.WithLabelValues(string(MethodFallback)).Inc()
	return ScoreResult{
		Score:  FallbackScore(donor, recipient),
		Method: MethodFallback,
		Reason: reason,
	}
}

// ScorePairStrict scores with the model only. It returns an error wrapping
// artifact.ErrUnavailable when no model is loaded.
func (s *Scorer) ScorePairStrict(donor records.DonorRecord, recipient records.RecipientRecord) (ScoreResult, error) {
	set := s.model.Load()
	if set == nil {
		return ScoreResult{}, fmt.Errorf("%w: no model loaded", artifact.ErrUnavailable)
	}
	score, err := ModelScore(set.Vectorizer, Encode(donor), Encode(recipient))
	if err != nil {
		return ScoreResult{}, err
	}
	metrics.ScoresTotal.WithLabelValues(string(MethodML)).Inc()
	return ScoreResult{Score: score, Method: MethodML}, nil
}

// ModelScore is the cosine similarity of two feature vectors under the
// vectorizer, scaled to a percentage with two decimals.
func ModelScore(v *tfidf.Vectorizer, donor, recipient FeatureVector) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model scoring panicked: %v", r)
		}
	}()

	dv, err := v.TransformOne(donor.String())
	if err != nil {
		return 0, err
	}
	rv, err := v.TransformOne(recipient.String())
	if err != nil {
		return 0, err
	}
	sim := tfidf.CosineSimilarity(dv, rv)
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0, fmt.Errorf("similarity is not finite: %v", sim)
	}
	return Clamp(round2(sim * 100)), nil
}
