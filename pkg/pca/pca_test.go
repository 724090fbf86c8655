package pca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPCA_ExplainedVarianceRatio(t *testing.T) {
	tests := []struct {
		name       string
		components int
		data       []float64
		expected   []float64
	}{
		// Points on the line y = 2x: one component carries all the variance.
		{"collinear", 1, []float64{1, 2, 2, 4, 3, 6, 4, 8}, []float64{1}},
		{"all components", 0, []float64{1, 0, -1, 0, 0, 1, 0, -1}, []float64{0.5, 0.5}},
		{"constant data", 2, []float64{3, 3, 3, 3, 3, 3, 3, 3}, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X := mat.NewDense(4, 2, tt.data)
			before := mat.DenseCopyOf(X)

			p := NewPCA(tt.components)
			require.NoError(t, p.Fit(X))
			assert.True(t, mat.Equal(before, X), "input must not be modified")

			ratios, err := p.ExplainedVarianceRatio()
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.expected, ratios, 1e-9)
		})
	}
}

func TestPCA_Errors(t *testing.T) {
	_, err := NewPCA(1).ExplainedVarianceRatio()
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, NewPCA(-1).Fit(mat.NewDense(1, 1, []float64{1})), ErrComponents)
}
