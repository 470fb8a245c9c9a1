package oracle

import (
	"context"
	"math/rand"

	"evpi/domain/dataset"
	"evpi/domain/decision"
	"evpi/internal/errors"
	"evpi/ports"

	"gonum.org/v1/gonum/stat/distmv"
)

// LikelihoodOracle draws model parameters from the fitted model's asymptotic
// sampling distribution: a multivariate normal centered at the maximum
// likelihood estimates with the estimated coefficient covariance. No
// refitting happens per draw.
type LikelihoodOracle struct {
	ds    *dataset.Dataset
	model ports.FittedModel
}

// NewLikelihoodOracle creates a likelihood-based oracle around an
// already-fitted model
func NewLikelihoodOracle(ds *dataset.Dataset, model ports.FittedModel) *LikelihoodOracle {
	return &LikelihoodOracle{ds: ds, model: model}
}

// Name returns the strategy selector value
func (o *LikelihoodOracle) Name() string {
	return StrategyLikelihood
}

// Draw samples one coefficient vector and predicts on the original dataset
func (o *LikelihoodOracle) Draw(ctx context.Context, rng *rand.Rand) (decision.ProbabilityVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normal, ok := distmv.NewNormal(o.model.Coefficients(), o.model.Covariance(), randv2Source{rng})
	if !ok {
		// Deterministic failure: the covariance is not positive definite, so
		// retrying cannot help.
		return nil, errors.RefitError("coefficient covariance is not positive definite", nil)
	}

	beta := normal.Rand(nil)
	return o.model.PredictWithCoefficients(o.ds, beta), nil
}
