package oracle

import (
	"context"
	"math/rand"

	"evpi/domain/dataset"
	"evpi/domain/decision"
	"evpi/internal/errors"
	"evpi/ports"
)

// CaseResamplingOracle draws by the nonparametric bootstrap: resample n rows
// with replacement, refit the model family on the resample, predict on the
// original dataset.
type CaseResamplingOracle struct {
	ds     *dataset.Dataset
	fitter ports.ModelFitter
}

// NewCaseResamplingOracle creates a bootstrap oracle over the development data
func NewCaseResamplingOracle(ds *dataset.Dataset, fitter ports.ModelFitter) *CaseResamplingOracle {
	return &CaseResamplingOracle{ds: ds, fitter: fitter}
}

// Name returns the strategy selector value
func (o *CaseResamplingOracle) Name() string {
	return StrategyCaseResampling
}

// Draw resamples and refits, retrying with a fresh resample when the fit
// fails (e.g. a single-class resample), up to maxRefitAttempts
func (o *CaseResamplingOracle) Draw(ctx context.Context, rng *rand.Rand) (decision.ProbabilityVector, error) {
	var lastErr error
	for attempt := 0; attempt < maxRefitAttempts; attempt++ {
		resample := o.ds.SampleWithReplacement(rng)
		model, err := o.fitter.Fit(ctx, resample)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		return model.PredictProbability(o.ds), nil
	}
	return nil, errors.Wrapf(lastErr, "bootstrap refit failed %d times", maxRefitAttempts)
}
