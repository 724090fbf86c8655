package tfidf

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpus() []string {
	return []string{
		"Seattle,Boy,common,alpha",
		"Boston,Girl,common,beta",
		"Denver,Boy,common,gamma",
		"Austin,Girl,common,delta",
		"Dallas,Boy,common,alpha",
		"Tampa,Girl,common,beta",
		"Miami,Boy,common,gamma",
		"Reno,Girl,common,delta",
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("New York,Boy,O Neg,28,STrue", true)
	assert.Equal(t, []string{"new", "york", "boy", "neg", "28", "strue"}, tokens)

	assert.Empty(t, Tokenize("", true))
	assert.Empty(t, Tokenize(",,,", true))
	assert.Equal(t, []string{"Boy"}, Tokenize("Boy", false))
}

func TestFit_PrunesByDocumentFrequency(t *testing.T) {
	v := NewVectorizer(DefaultOptions())
	require.NoError(t, v.Fit(corpus()))

	// "common" appears in every document and "boy"/"girl" in half of them.
	assert.NotContains(t, v.Vocabulary, "common")
	assert.NotContains(t, v.Vocabulary, "boy")
	assert.NotContains(t, v.Vocabulary, "girl")
	assert.Contains(t, v.Vocabulary, "seattle")
	assert.Contains(t, v.Vocabulary, "alpha")
	assert.Equal(t, 8, v.Documents)

	features := v.Features()
	for i := 1; i < len(features); i++ {
		assert.Less(t, features[i-1], features[i], "vocabulary is sorted")
	}
}

func TestFit_StopWords(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDF = 1
	opts.MinDF = 0
	v := NewVectorizer(opts)
	require.NoError(t, v.Fit([]string{"never smoked,kidney", "former,liver"}))

	assert.NotContains(t, v.Vocabulary, "never")
	assert.NotContains(t, v.Vocabulary, "former")
	assert.Contains(t, v.Vocabulary, "kidney")
}

func TestFit_MaxFeatures(t *testing.T) {
	opts := Options{MaxFeatures: 2, MaxDF: 1, Lowercase: true}
	v := NewVectorizer(opts)
	require.NoError(t, v.Fit([]string{"aa bb cc", "aa bb", "aa dd"}))

	assert.Equal(t, []string{"aa", "bb"}, v.Features())
}

func TestFit_Errors(t *testing.T) {
	v := NewVectorizer(DefaultOptions())
	assert.ErrorIs(t, v.Fit(nil), ErrEmptyCorpus)

	// A single repeated document leaves every term above max_df.
	assert.ErrorIs(t, v.Fit([]string{"kidney", "kidney"}), ErrEmptyVocabulary)

	_, err := NewVectorizer(DefaultOptions()).TransformOne("kidney")
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestTransform_RowsAreUnitLength(t *testing.T) {
	v := NewVectorizer(DefaultOptions())
	m, err := v.FitTransform(corpus())
	require.NoError(t, err)

	rows, cols := m.Dims()
	assert.Equal(t, 8, rows)
	assert.Equal(t, v.Size(), cols)
	for i := 0; i < rows; i++ {
		var sum float64
		for _, x := range m.RawRowView(i) {
			sum += x * x
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	sim := SimilarityMatrix(m)
	r, c := sim.Dims()
	assert.Equal(t, rows, r)
	assert.Equal(t, rows, c)
	assert.InDelta(t, 1.0, sim.At(0, 0), 1e-9)
	assert.InDelta(t, sim.At(0, 4), sim.At(4, 0), 1e-12)
}

func TestTransformOne_UnknownTermsGiveZeroVector(t *testing.T) {
	v := NewVectorizer(DefaultOptions())
	require.NoError(t, v.Fit(corpus()))

	vec, err := v.TransformOne("Nowhere,Unknown")
	require.NoError(t, err)
	for _, x := range vec {
		assert.Zero(t, x)
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-12)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.Zero(t, CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Zero(t, CosineSimilarity([]float64{1}, []float64{1, 1}))
	assert.False(t, math.IsNaN(CosineSimilarity(nil, nil)))
}

func TestVectorizer_GobRoundTrip(t *testing.T) {
	v := NewVectorizer(DefaultOptions())
	require.NoError(t, v.Fit(corpus()))

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(v))

	var loaded Vectorizer
	require.NoError(t, gob.NewDecoder(&buf).Decode(&loaded))
	require.NoError(t, loaded.Validate())

	want, err := v.TransformOne("Seattle,alpha")
	require.NoError(t, err)
	got, err := loaded.TransformOne("Seattle,alpha")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
