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

// BayesianBootstrapOracle draws by Rubin's Bayesian bootstrap: row weights
// from a symmetric Dirichlet(1,...,1) over the n rows, a weighted refit on
// the original rows, and prediction on the original dataset.
type BayesianBootstrapOracle struct {
	ds     *dataset.Dataset
	fitter ports.ModelFitter
	alpha  []float64
}

// NewBayesianBootstrapOracle creates a Bayesian bootstrap oracle over the
// development data
func NewBayesianBootstrapOracle(ds *dataset.Dataset, fitter ports.ModelFitter) *BayesianBootstrapOracle {
	alpha := make([]float64, ds.RowCount())
	for i := range alpha {
		alpha[i] = 1
	}
	return &BayesianBootstrapOracle{ds: ds, fitter: fitter, alpha: alpha}
}

// Name returns the strategy selector value
func (o *BayesianBootstrapOracle) Name() string {
	return StrategyBayesianBootstrap
}

// Draw samples Dirichlet weights and fits a weighted model. The outcome
// column keeps both classes (all rows stay present, only reweighted), but a
// weighted fit can still fail to converge; those draws are retried with
// fresh weights up to maxRefitAttempts.
func (o *BayesianBootstrapOracle) Draw(ctx context.Context, rng *rand.Rand) (decision.ProbabilityVector, error) {
	dir := distmv.NewDirichlet(o.alpha, randv2Source{rng})
	n := float64(o.ds.RowCount())

	var lastErr error
	for attempt := 0; attempt < maxRefitAttempts; attempt++ {
		weights := dir.Rand(nil)
		// Scale to mean 1 so the information matrix matches the unweighted
		// fit's magnitude.
		for i := range weights {
			weights[i] *= n
		}

		model, err := o.fitter.FitWeighted(ctx, o.ds, weights)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		return model.PredictProbability(o.ds), nil
	}
	return nil, errors.Wrapf(lastErr, "weighted refit failed %d times", maxRefitAttempts)
}
