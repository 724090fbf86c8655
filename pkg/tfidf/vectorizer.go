package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyCorpus is returned when Fit receives no documents.
	ErrEmptyCorpus = errors.New("tfidf: empty corpus")
	// ErrEmptyVocabulary is returned when pruning removes every term.
	ErrEmptyVocabulary = errors.New("tfidf: no terms remain after pruning")
	// ErrNotFitted is returned by Transform on a vectorizer without a vocabulary.
	ErrNotFitted = errors.New("tfidf: vectorizer is not fitted")
)

// Options controls vocabulary selection.
type Options struct {
	MaxFeatures int     // keep at most this many terms, ranked by corpus frequency; 0 means unlimited
	MaxDF       float64 // drop terms present in more than this share of documents
	MinDF       float64 // drop terms present in fewer than this share of documents
	StopWords   bool    // drop English stop words
	Lowercase   bool
}

// DefaultOptions mirrors the settings the matching model is trained with.
func DefaultOptions() Options {
	return Options{
		MaxFeatures: 200,
		MaxDF:       0.25,
		MinDF:       0.01,
		StopWords:   true,
		Lowercase:   true,
	}
}

// Vectorizer represents a TF-IDF vectorizer. Its exported fields are the
// complete fitted state and round-trip through encoding/gob.
type Vectorizer struct {
	Options    Options
	Vocabulary map[string]int
	IDF        []float64
	Documents  int
}

// NewVectorizer creates a new Vectorizer
func NewVectorizer(opts Options) *Vectorizer {
	return &Vectorizer{
		Options:    opts,
		Vocabulary: make(map[string]int),
	}
}

func (v *Vectorizer) tokens(doc string) []string {
	raw := Tokenize(doc, v.Options.Lowercase)
	if !v.Options.StopWords {
		return raw
	}
	out := raw[:0]
	for _, t := range raw {
		if !IsStopWord(t) {
			out = append(out, t)
		}
	}
	return out
}

// Fit learns the vocabulary and inverse document frequencies from docs.
func (v *Vectorizer) Fit(docs []string) error {
	n := len(docs)
	if n == 0 {
		return ErrEmptyCorpus
	}

	docFreq := make(map[string]int)
	termFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range v.tokens(doc) {
			termFreq[term]++
			if !seen[term] {
				docFreq[term]++
				seen[term] = true
			}
		}
	}

	maxDocs := float64(n)
	if v.Options.MaxDF > 0 {
		maxDocs = v.Options.MaxDF * float64(n)
	}
	minDocs := v.Options.MinDF * float64(n)

	kept := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if float64(df) > maxDocs || float64(df) < minDocs {
			continue
		}
		kept = append(kept, term)
	}

	if v.Options.MaxFeatures > 0 && len(kept) > v.Options.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if termFreq[kept[i]] != termFreq[kept[j]] {
				return termFreq[kept[i]] > termFreq[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.Options.MaxFeatures]
	}
	if len(kept) == 0 {
		return ErrEmptyVocabulary
	}

	sort.Strings(kept)
	v.Vocabulary = make(map[string]int, len(kept))
	v.IDF = make([]float64, len(kept))
	for i, term := range kept {
		v.Vocabulary[term] = i
		// smoothed idf: ln((1+n)/(1+df)) + 1
		v.IDF[i] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}
	v.Documents = n
	return nil
}

// Features returns the vocabulary ordered by column index.
func (v *Vectorizer) Features() []string {
	out := make([]string, len(v.Vocabulary))
	for term, idx := range v.Vocabulary {
		out[idx] = term
	}
	return out
}

// Size returns the number of vocabulary terms.
func (v *Vectorizer) Size() int {
	return len(v.Vocabulary)
}

// Validate checks that the fitted state is internally consistent.
func (v *Vectorizer) Validate() error {
	if len(v.Vocabulary) == 0 {
		return ErrNotFitted
	}
	if len(v.IDF) != len(v.Vocabulary) {
		return fmt.Errorf("tfidf: %d idf weights for %d terms", len(v.IDF), len(v.Vocabulary))
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.IDF) {
			return fmt.Errorf("tfidf: term %q has out-of-range index %d", term, idx)
		}
	}
	return nil
}

// TransformOne returns the L2-normalized TF-IDF vector of a single document.
// Documents with no vocabulary terms map to the zero vector.
func (v *Vectorizer) TransformOne(doc string) ([]float64, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	vec := make([]float64, len(v.Vocabulary))
	for _, term := range v.tokens(doc) {
		if idx, ok := v.Vocabulary[term]; ok {
			vec[idx]++
		}
	}
	floats.Mul(vec, v.IDF)
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec, nil
}

// Transform transforms the input documents to a document-term matrix with
// one L2-normalized row per document.
func (v *Vectorizer) Transform(docs []string) (*mat.Dense, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}
	m := mat.NewDense(len(docs), len(v.Vocabulary), nil)
	for i, doc := range docs {
		row, err := v.TransformOne(doc)
		if err != nil {
			return nil, err
		}
		m.SetRow(i, row)
	}
	return m, nil
}

// FitTransform fits the vectorizer to the input documents and then transforms them
func (v *Vectorizer) FitTransform(docs []string) (*mat.Dense, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// SimilarityMatrix computes pairwise cosine similarity between the rows of
// an L2-normalized document-term matrix.
func SimilarityMatrix(docTerm *mat.Dense) *mat.Dense {
	var sim mat.Dense
	sim.Mul(docTerm, docTerm.T())
	return &sim
}
