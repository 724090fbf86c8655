package pca

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotFitted     = errors.New("pca: model is not fitted")
	ErrFactorization = errors.New("pca: unable to factorize")
	ErrComponents    = errors.New("pca: number of components can't be less than zero")
)

type PCA struct {
	NumComponents int
	svd           *mat.SVD
}

// NewPCA creates a new PCA instance with the specified number of components.
func NewPCA(numComponents int) *PCA {
	return &PCA{NumComponents: numComponents}
}

// Fit fits the PCA model to the data. X is not modified.
func (pca *PCA) Fit(X *mat.Dense) error {
	if pca.NumComponents < 0 {
		return ErrComponents
	}
	centered := center(X)

	svd := &mat.SVD{}
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return ErrFactorization
	}
	pca.svd = svd
	return nil
}

// ExplainedVarianceRatio returns, for each retained component, the share of
// total variance it explains.
func (pca *PCA) ExplainedVarianceRatio() ([]float64, error) {
	if pca.svd == nil {
		return nil, ErrNotFitted
	}
	values := pca.svd.Values(nil)
	var total float64
	for _, s := range values {
		total += s * s
	}
	n := len(values)
	if pca.NumComponents > 0 && pca.NumComponents < n {
		n = pca.NumComponents
	}
	ratios := make([]float64, n)
	if total == 0 {
		return ratios, nil
	}
	for i := 0; i < n; i++ {
		ratios[i] = values[i] * values[i] / total
	}
	return ratios, nil
}

// center returns a copy of matrix with each column's mean subtracted.
func center(matrix *mat.Dense) *mat.Dense {
	rows, cols := matrix.Dims()
	out := mat.DenseCopyOf(matrix)
	for j := 0; j < cols; j++ {
		mean := mat.Sum(matrix.ColView(j)) / float64(rows)
		for i := 0; i < rows; i++ {
			out.Set(i, j, out.At(i, j)-mean)
		}
	}
	return out
}

