package logit

import (
	"context"
	"math"

	"evpi/domain/dataset"
	"evpi/domain/decision"
	"evpi/internal/errors"
	"evpi/ports"

	"gonum.org/v1/gonum/mat"
)

const (
	defaultMaxIter   = 25
	defaultTolerance = 1e-8
)

// Fitter fits a logistic regression by iteratively reweighted least squares.
// It is the reference implementation of ports.ModelFitter; the engine itself
// never assumes this model family.
type Fitter struct {
	maxIter   int
	tolerance float64
}

// NewFitter creates a fitter with default convergence settings
func NewFitter() *Fitter {
	return &Fitter{
		maxIter:   defaultMaxIter,
		tolerance: defaultTolerance,
	}
}

// Fit fits the model with unit row weights
func (f *Fitter) Fit(ctx context.Context, ds *dataset.Dataset) (ports.FittedModel, error) {
	return f.FitWeighted(ctx, ds, nil)
}

// FitWeighted fits with one non-negative weight per row. A nil weights slice
// means unit weights. Returns REFIT_FAILURE when the resample cannot support
// a fit (single-class outcome, singular information matrix, non-convergence).
func (f *Fitter) FitWeighted(ctx context.Context, ds *dataset.Dataset, weights []float64) (ports.FittedModel, error) {
	if err := ds.Validate(); err != nil {
		return nil, errors.RefitError("dataset cannot support a fit", err)
	}

	n := ds.RowCount()
	p := ds.PredictorCount() + 1 // intercept first

	if weights != nil && len(weights) != n {
		return nil, errors.InvalidInput("weight vector length does not match row count")
	}

	beta := make([]float64, p)
	grad := mat.NewVecDense(p, nil)
	hessian := mat.NewSymDense(p, nil)
	delta := mat.NewVecDense(p, nil)
	mu := make([]float64, n)

	converged := false
	for iter := 0; iter < f.maxIter; iter++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for i := 0; i < n; i++ {
			mu[i] = sigmoid(beta[0] + dot(ds.Rows[i], beta[1:]))
		}

		// Score vector X'W(y - mu) and observed information X'WX with
		// W_i = w_i * mu_i * (1 - mu_i)
		for j := 0; j < p; j++ {
			grad.SetVec(j, 0)
			for k := j; k < p; k++ {
				hessian.SetSym(j, k, 0)
			}
		}
		for i := 0; i < n; i++ {
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			resid := w * (ds.Outcomes[i] - mu[i])
			info := w * mu[i] * (1 - mu[i])
			for j := 0; j < p; j++ {
				xj := designValue(ds.Rows[i], j)
				grad.SetVec(j, grad.AtVec(j)+resid*xj)
				for k := j; k < p; k++ {
					xk := designValue(ds.Rows[i], k)
					hessian.SetSym(j, k, hessian.At(j, k)+info*xj*xk)
				}
			}
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(hessian); !ok {
			return nil, errors.New(errors.CodeRefitFailure, "information matrix is singular (separation or collinear predictors)")
		}
		if err := chol.SolveVecTo(delta, grad); err != nil {
			return nil, errors.RefitError("Newton step failed", err)
		}

		maxStep := 0.0
		for j := 0; j < p; j++ {
			beta[j] += delta.AtVec(j)
			if s := math.Abs(delta.AtVec(j)); s > maxStep {
				maxStep = s
			}
		}
		if maxStep < f.tolerance {
			converged = true
			break
		}
	}

	if !converged {
		return nil, errors.New(errors.CodeRefitFailure, "logistic fit did not converge")
	}

	// Covariance of the estimates from the inverse observed information at
	// the final beta.
	cov, err := f.covarianceAt(ds, weights, beta, p)
	if err != nil {
		return nil, err
	}

	return &Model{coefficients: beta, covariance: cov}, nil
}

func (f *Fitter) covarianceAt(ds *dataset.Dataset, weights, beta []float64, p int) (*mat.SymDense, error) {
	hessian := mat.NewSymDense(p, nil)
	for i := 0; i < ds.RowCount(); i++ {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		m := sigmoid(beta[0] + dot(ds.Rows[i], beta[1:]))
		info := w * m * (1 - m)
		for j := 0; j < p; j++ {
			xj := designValue(ds.Rows[i], j)
			for k := j; k < p; k++ {
				hessian.SetSym(j, k, hessian.At(j, k)+info*xj*designValue(ds.Rows[i], k))
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(hessian); !ok {
		return nil, errors.New(errors.CodeRefitFailure, "information matrix is singular at the fitted coefficients")
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, errors.RefitError("covariance inversion failed", err)
	}
	return &cov, nil
}

// Model is a fitted logistic regression
type Model struct {
	coefficients []float64
	covariance   *mat.SymDense
}

// PredictProbability returns sigmoid(X beta) per row
func (m *Model) PredictProbability(ds *dataset.Dataset) decision.ProbabilityVector {
	return m.PredictWithCoefficients(ds, m.coefficients)
}

// PredictWithCoefficients predicts with an externally supplied coefficient
// vector, intercept first
func (m *Model) PredictWithCoefficients(ds *dataset.Dataset, coefficients []float64) decision.ProbabilityVector {
	preds := make(decision.ProbabilityVector, ds.RowCount())
	for i, row := range ds.Rows {
		preds[i] = sigmoid(coefficients[0] + dot(row, coefficients[1:]))
	}
	return preds
}

// Coefficients returns the fitted coefficients, intercept first
func (m *Model) Coefficients() []float64 {
	out := make([]float64, len(m.coefficients))
	copy(out, m.coefficients)
	return out
}

// Covariance returns the estimated coefficient covariance
func (m *Model) Covariance() *mat.SymDense {
	return m.covariance
}

// designValue maps design-matrix column j to the row's value: column 0 is
// the intercept
func designValue(row []float64, j int) float64 {
	if j == 0 {
		return 1
	}
	return row[j-1]
}

func dot(x, beta []float64) float64 {
	sum := 0.0
	for i, v := range x {
		sum += v * beta[i]
	}
	return sum
}

func sigmoid(eta float64) float64 {
	// Guard the exp against overflow for extreme linear predictors
	if eta > 35 {
		return 1
	}
	if eta < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-eta))
}
