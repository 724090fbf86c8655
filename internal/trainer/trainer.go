// Package trainer fits the similarity model from a historical dataset and
// publishes it to the artifact store.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/TFMV/OrganMatchPro/internal/artifact"
	"github.com/TFMV/OrganMatchPro/internal/matcher"
	"github.com/TFMV/OrganMatchPro/internal/metrics"
	"github.com/TFMV/OrganMatchPro/internal/records"
	"github.com/TFMV/OrganMatchPro/pkg/config"
	"github.com/TFMV/OrganMatchPro/pkg/pca"
	"github.com/TFMV/OrganMatchPro/pkg/tfidf"
	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

var (
	// ErrDataset marks a missing or malformed training dataset.
	ErrDataset = errors.New("dataset error")
	// ErrTrainingInProgress is returned when another run holds the lock.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// Options configures a training run.
type Options struct {
	ArtifactDir  string
	Vectorizer   tfidf.Options
	KeepVersions int
	// Components is the number of principal components reported in the
	// manifest; 0 disables the diagnostic.
	Components int
	// MaxDiagnosticRows caps the rows fed to the PCA diagnostic.
	MaxDiagnosticRows int
}

// OptionsFromConfig builds run options from the model section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ArtifactDir: cfg.Model.ArtifactDir,
		Vectorizer: tfidf.Options{
			MaxFeatures: cfg.Model.MaxFeatures,
			MaxDF:       cfg.Model.MaxDF,
			MinDF:       cfg.Model.MinDocFreq(),
			StopWords:   true,
			Lowercase:   true,
		},
		KeepVersions:      cfg.Model.KeepVersions,
		Components:        2,
		MaxDiagnosticRows: 5000,
	}
}

// Result describes a published training run.
type Result struct {
	RunID      string
	VersionDir string
	Manifest   artifact.Manifest
	Pruned     []string
}

// Trainer runs training jobs against one artifact store.
type Trainer struct {
	opts   Options
	logger utils.Logger
	now    func() time.Time
}

// New creates a trainer.
func New(opts Options, logger utils.Logger) *Trainer {
	if logger == nil {
		logger = utils.NewNoOpLogger()
	}
	return &Trainer{opts: opts, logger: logger, now: time.Now}
}

// Train fits a new model from the dataset at datasetPath and publishes it.
// Only one run may hold an artifact store at a time. Any failure leaves the
// previously published version active.
func (t *Trainer) Train(ctx context.Context, datasetPath string) (*Result, error) {
	start := t.now()
	outcome := "failure"
	defer func() {
		metrics.TrainingRuns.WithLabelValues(outcome).Inc()
		metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	}()

	unlock, err := t.acquireLock()
	if err != nil {
		if errors.Is(err, ErrTrainingInProgress) {
			outcome = "locked"
		}
		return nil, err
	}
	defer unlock()

	runID := uuid.New().String()
	log := t.logger.WithFields(map[string]interface{}{"run_id": runID, "dataset": datasetPath})
	log.Info("Training started", nil)

	corpus, err := LoadCorpus(datasetPath)
	if err != nil {
		log.WithError(err).Error("Training aborted", nil)
		return nil, err
	}
	log.Info("Dataset loaded", map[string]interface{}{"rows": len(corpus)})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectorizer := tfidf.NewVectorizer(t.opts.Vectorizer)
	termMatrix, err := vectorizer.FitTransform(corpus)
	if err != nil {
		log.WithError(err).Error("Training aborted", nil)
		return nil, fmt.Errorf("%w: %v", ErrDataset, err)
	}
	similarity := tfidf.SimilarityMatrix(termMatrix)
	log.Info("Vectorizer fitted", map[string]interface{}{"vocabulary": vectorizer.Size()})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifest := artifact.Manifest{
		RunID:          runID,
		TrainedAt:      t.now().UTC(),
		Dataset:        filepath.Base(datasetPath),
		Rows:           len(corpus),
		VocabularySize: vectorizer.Size(),
		MaxFeatures:    t.opts.Vectorizer.MaxFeatures,
		MaxDF:          t.opts.Vectorizer.MaxDF,
		MinDF:          t.opts.Vectorizer.MinDF,
		MeanSimilarity: meanOffDiagonal(similarity),
	}
	manifest.ExplainedVariance = t.explainedVariance(termMatrix, log)

	if err := SmokeTest(vectorizer); err != nil {
		log.WithError(err).Error("Smoke test failed", nil)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := &artifact.Set{
		Vectorizer: vectorizer,
		TermMatrix: termMatrix,
		Similarity: similarity,
		Manifest:   manifest,
	}
	dir, err := artifact.WriteVersion(t.opts.ArtifactDir, runID, set)
	if err != nil {
		log.WithError(err).Error("Writing artifacts failed", nil)
		return nil, err
	}
	if err := artifact.Publish(t.opts.ArtifactDir, dir); err != nil {
		log.WithError(err).Error("Publishing artifacts failed", nil)
		return nil, err
	}

	pruned, err := artifact.Prune(t.opts.ArtifactDir, t.opts.KeepVersions)
	if err != nil {
		// the new version is live; stale directories are only clutter
		log.WithError(err).Warn("Pruning old versions failed", nil)
	}

	outcome = "success"
	log.Info("Training complete", map[string]interface{}{
		"version":     filepath.Base(dir),
		"vocabulary":  manifest.VocabularySize,
		"mean_sim":    manifest.MeanSimilarity,
		"pruned":      len(pruned),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &Result{RunID: runID, VersionDir: dir, Manifest: manifest, Pruned: pruned}, nil
}

func (t *Trainer) acquireLock() (func(), error) {
	if err := ensureDir(t.opts.ArtifactDir); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(t.opts.ArtifactDir, artifact.LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock: %v", artifact.ErrWrite, err)
	}
	if !locked {
		return nil, ErrTrainingInProgress
	}
	return func() { _ = lock.Unlock() }, nil
}

// explainedVariance reports the share of variance carried by the leading
// principal components. Failures only cost the diagnostic.
func (t *Trainer) explainedVariance(termMatrix *mat.Dense, log utils.Logger) []float64 {
	if t.opts.Components <= 0 {
		return nil
	}
	rows, cols := termMatrix.Dims()
	if rows < 2 || cols < 2 {
		return nil
	}
	if t.opts.MaxDiagnosticRows > 0 && rows > t.opts.MaxDiagnosticRows {
		rows = t.opts.MaxDiagnosticRows
	}
	sample := mat.DenseCopyOf(termMatrix.Slice(0, rows, 0, cols))

	p := pca.NewPCA(t.opts.Components)
	if err := p.Fit(sample); err != nil {
		log.WithError(err).Warn("PCA diagnostic skipped", nil)
		return nil
	}
	ratios, err := p.ExplainedVarianceRatio()
	if err != nil {
		log.WithError(err).Warn("PCA diagnostic skipped", nil)
		return nil
	}
	return ratios
}

func meanOffDiagonal(sim *mat.Dense) float64 {
	n, _ := sim.Dims()
	if n < 2 {
		return 0
	}
	var trace float64
	for i := 0; i < n; i++ {
		trace += sim.At(i, i)
	}
	return (mat.Sum(sim) - trace) / float64(n*n-n)
}

var smokeDonor = records.NewDonor(records.DonorRecord{
	Person: records.Person{City: "Seattle", Gender: "Boy", Race: "White", Age: 28, BloodType: "O-"},
	Health: records.HealthExcellent,
})

var smokeRecipient = records.NewRecipient(records.RecipientRecord{
	Person:  records.Person{City: "Boston", Gender: "Girl", Race: "Asian", Age: 45, BloodType: "A+"},
	Urgency: records.UrgencyCritical,
})

// SmokeTest checks that a fitted vectorizer scores sample records to a
// finite similarity.
func SmokeTest(v *tfidf.Vectorizer) error {
	dv, err := v.TransformOne(matcher.Encode(smokeDonor).String())
	if err != nil {
		return fmt.Errorf("smoke test: %w", err)
	}
	rv, err := v.TransformOne(matcher.Encode(smokeRecipient).String())
	if err != nil {
		return fmt.Errorf("smoke test: %w", err)
	}
	if len(dv) != v.Size() || len(rv) != v.Size() {
		return fmt.Errorf("smoke test: vector length %d, vocabulary %d", len(dv), v.Size())
	}
	sim := tfidf.CosineSimilarity(dv, rv)
	if math.IsNaN(sim) || sim < -1e-9 || sim > 1+1e-9 {
		return fmt.Errorf("smoke test: similarity %v out of range", sim)
	}
	return nil
}
