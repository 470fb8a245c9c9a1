package ports

import (
	"context"

	"evpi/domain/dataset"
	"evpi/domain/decision"

	"gonum.org/v1/gonum/mat"
)

// ModelFitter fits a binary-outcome risk model to a dataset. The engine is
// agnostic to the model family; the reference adapter is logistic regression.
type ModelFitter interface {
	// Fit fits the model to the dataset's outcome column
	Fit(ctx context.Context, ds *dataset.Dataset) (FittedModel, error)

	// FitWeighted fits with one non-negative weight per row, as used by the
	// Bayesian bootstrap. Weights need not be normalized.
	FitWeighted(ctx context.Context, ds *dataset.Dataset, weights []float64) (FittedModel, error)
}

// FittedModel exposes predictions and, for likelihood-based sampling, the
// estimated parameter distribution
type FittedModel interface {
	// PredictProbability returns one predicted risk per dataset row
	PredictProbability(ds *dataset.Dataset) decision.ProbabilityVector

	// PredictWithCoefficients predicts using an externally supplied
	// coefficient vector (intercept first), e.g. a sampling-distribution draw
	PredictWithCoefficients(ds *dataset.Dataset, coefficients []float64) decision.ProbabilityVector

	// Coefficients returns the fitted coefficient vector, intercept first
	Coefficients() []float64

	// Covariance returns the estimated covariance of the coefficient
	// estimates (inverse observed Fisher information)
	Covariance() *mat.SymDense
}
