// Package regress provides the ridge regression and residual quantile
// primitives behind the price estimator. The algorithm choice is deliberately
// narrow: one closed-form pass over the full design matrix, no iteration
package regress

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	perr "flatsense/internal/platform/errors"
)

// Ridge solves (XtX + lambda*I) beta = Xt y in one shot
// rows of x must already be encoded (intercept column included by the caller)
func Ridge(x *mat.Dense, y []float64, lambda float64) ([]float64, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, perr.ModelTrainingf("empty design matrix")
	}
	if rows != len(y) {
		return nil, perr.ModelTrainingf("design matrix has %d rows but %d targets", rows, len(y))
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < cols; i++ {
		xtx.Set(i, i, xtx.At(i, i)+lambda)
	}

	yv := mat.NewVecDense(len(y), y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeModelTraining, "normal equations solve failed")
	}

	out := make([]float64, cols)
	copy(out, beta.RawVector().Data)
	return out, nil
}

// Predict returns the dot product of one encoded row with the coefficients
func Predict(row, beta []float64) float64 {
	var sum float64
	for i := range row {
		sum += row[i] * beta[i]
	}
	return sum
}

// Residuals returns y - X*beta per row
func Residuals(x *mat.Dense, y, beta []float64) []float64 {
	rows, cols := x.Dims()
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		out[i] = y[i] - Predict(row, beta)
	}
	return out
}

// Quantile returns the p-th empirical quantile of vals
// vals are copied and sorted; p is clamped to [0,1]
func Quantile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
