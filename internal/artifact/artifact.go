// Package artifact owns the on-disk layout of trained matching models.
//
// An artifact root holds immutable version directories and a "current"
// symlink naming the active one. Publishing swaps the symlink with a single
// rename, so readers see either the previous or the new version in full.
package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TFMV/OrganMatchPro/pkg/tfidf"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v2"
)

const (
	VectorizerFile = "tf_model.gob"
	TermMatrixFile = "tf_matrix.bin"
	SimilarityFile = "cosine_sim.bin"
	ManifestFile   = "manifest.yaml"
	CurrentLink    = "current"
	LockFile       = ".train.lock"

	versionPrefix = "v-"
	stagingPrefix = ".staging-"
)

var (
	// ErrUnavailable marks a missing, partial or corrupt artifact set.
	ErrUnavailable = errors.New("model unavailable")
	// ErrWrite marks a failure to persist or publish an artifact set.
	ErrWrite = errors.New("artifact write failed")
)

// Manifest describes one trained version.
type Manifest struct {
	RunID          string    `yaml:"run_id"`
	TrainedAt      time.Time `yaml:"trained_at"`
	Dataset        string    `yaml:"dataset"`
	Rows           int       `yaml:"rows"`
	VocabularySize int       `yaml:"vocabulary_size"`
	MaxFeatures    int       `yaml:"max_features"`
	MaxDF          float64   `yaml:"max_df"`
	MinDF          float64   `yaml:"min_df"`
	MeanSimilarity float64   `yaml:"mean_similarity"`
	// ExplainedVariance holds the variance ratio of the leading principal
	// components of the document-term matrix.
	ExplainedVariance []float64 `yaml:"explained_variance,omitempty"`
}

// Set is a complete trained model.
type Set struct {
	Vectorizer *tfidf.Vectorizer
	TermMatrix *mat.Dense
	Similarity *mat.Dense
	Manifest   Manifest
}

// Validate checks that the three artifacts agree with each other.
func (s *Set) Validate() error {
	if s == nil || s.Vectorizer == nil || s.TermMatrix == nil || s.Similarity == nil {
		return fmt.Errorf("%w: incomplete artifact set", ErrUnavailable)
	}
	if err := s.Vectorizer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	rows, cols := s.TermMatrix.Dims()
	if cols != s.Vectorizer.Size() {
		return fmt.Errorf("%w: term matrix has %d columns for %d terms", ErrUnavailable, cols, s.Vectorizer.Size())
	}
	sr, sc := s.Similarity.Dims()
	if sr != rows || sc != rows {
		return fmt.Errorf("%w: similarity matrix is %dx%d for %d documents", ErrUnavailable, sr, sc, rows)
	}
	return nil
}

// Load reads the version the "current" link points at.
func Load(root string) (*Set, error) {
	dir, err := CurrentDir(root)
	if err != nil {
		return nil, err
	}
	return LoadVersion(dir)
}

// CurrentDir resolves the active version directory under root.
func CurrentDir(root string) (string, error) {
	target, err := os.Readlink(filepath.Join(root, CurrentLink))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return target, nil
}

// LoadVersion reads and validates the artifacts in dir.
func LoadVersion(dir string) (*Set, error) {
	set := &Set{Vectorizer: &tfidf.Vectorizer{}}

	if err := readFile(filepath.Join(dir, VectorizerFile), func(f *os.File) error {
		return gob.NewDecoder(f).Decode(set.Vectorizer)
	}); err != nil {
		return nil, err
	}

	var err error
	if set.TermMatrix, err = readMatrix(filepath.Join(dir, TermMatrixFile)); err != nil {
		return nil, err
	}
	if set.Similarity, err = readMatrix(filepath.Join(dir, SimilarityFile)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := yaml.Unmarshal(data, &set.Manifest); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrUnavailable, err)
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func readFile(path string, decode func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()
	if err := decode(f); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, filepath.Base(path), err)
	}
	return nil
}

func readMatrix(path string) (*mat.Dense, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var m mat.Dense
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, filepath.Base(path), err)
	}
	return &m, nil
}

// WriteVersion persists set into a new version directory named after runID
// and returns its path. Files are written to a staging directory that is
// renamed into place only after every write succeeded; on failure the
// staging directory is removed and the active version is untouched.
func WriteVersion(root, runID string, set *Set) (string, error) {
	if err := set.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	staging := filepath.Join(root, stagingPrefix+runID)
	if err := os.Mkdir(staging, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := writeAll(staging, set); err != nil {
		os.RemoveAll(staging)
		return "", err
	}

	final := filepath.Join(root, versionPrefix+runID)
	if err := os.Rename(staging, final); err != nil {
		os.RemoveAll(staging)
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return final, nil
}

func writeAll(dir string, set *Set) error {
	if err := writeFile(filepath.Join(dir, VectorizerFile), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(set.Vectorizer)
	}); err != nil {
		return err
	}
	for name, m := range map[string]*mat.Dense{TermMatrixFile: set.TermMatrix, SimilarityFile: set.Similarity} {
		if err := writeFile(filepath.Join(dir, name), func(f *os.File) error {
			_, err := m.MarshalBinaryTo(f)
			return err
		}); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(set.Manifest)
	if err != nil {
		return fmt.Errorf("%w: manifest: %v", ErrWrite, err)
	}
	return writeFile(filepath.Join(dir, ManifestFile), func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

func writeFile(path string, encode func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", ErrWrite, filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", ErrWrite, filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, filepath.Base(path), err)
	}
	return nil
}

// Publish atomically points the "current" link at versionDir.
func Publish(root, versionDir string) error {
	name := filepath.Base(versionDir)
	tmp := filepath.Join(root, "."+CurrentLink+"-"+name)
	os.Remove(tmp)
	if err := os.Symlink(name, tmp); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmp, filepath.Join(root, CurrentLink)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Versions lists version directories under root, oldest first.
func Versions(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	type version struct {
		path string
		mod  time.Time
	}
	var found []version
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), versionPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, version{filepath.Join(root, e.Name()), info.ModTime()})
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].mod.Equal(found[j].mod) {
			return found[i].path < found[j].path
		}
		return found[i].mod.Before(found[j].mod)
	})
	out := make([]string, len(found))
	for i, v := range found {
		out[i] = v.path
	}
	return out, nil
}

// Prune removes old version directories, keeping the newest keep versions
// and always the active one. Leftover staging directories are removed too.
func Prune(root string, keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}
	current, _ := CurrentDir(root)

	versions, err := Versions(root)
	if err != nil {
		return nil, err
	}

	var removed []string
	excess := len(versions) - keep
	for _, v := range versions {
		if excess <= 0 {
			break
		}
		if v == current {
			continue
		}
		if err := os.RemoveAll(v); err != nil {
			return removed, err
		}
		removed = append(removed, v)
		excess--
	}

	staging, _ := filepath.Glob(filepath.Join(root, stagingPrefix+"*"))
	for _, s := range staging {
		os.RemoveAll(s)
	}
	return removed, nil
}
