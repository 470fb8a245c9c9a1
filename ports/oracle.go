package ports

import (
	"context"
	"math/rand"

	"evpi/domain/decision"
)

// TrueModelOracle produces, per Monte Carlo iteration, one draw from the
// sampling distribution of the correct model's predicted risks on the
// original dataset. Draws are statistically independent; the oracle holds no
// state across draws beyond the immutable dataset and fitted inputs.
//
// The rng is iteration-local: the engine derives one generator per iteration
// from the run seed, so a fixed seed reproduces results under any worker
// count.
type TrueModelOracle interface {
	// Name identifies the sampling strategy ("case_resampling", "likelihood",
	// "bayesian_bootstrap")
	Name() string

	// Draw returns one simulated true-risk vector aligned with the original
	// dataset rows. Implementations that refit a model retry internally on
	// refit failure up to a bounded number of attempts, then return an error;
	// the engine aborts the whole run rather than skip the draw.
	Draw(ctx context.Context, rng *rand.Rand) (decision.ProbabilityVector, error)
}
