// Package oracle provides the sampling-distribution strategies behind
// ports.TrueModelOracle: each Draw yields one simulated "true model"
// prediction vector for the original dataset.
package oracle

import (
	"math/rand"
)

// Strategy names accepted by the selector
const (
	StrategyCaseResampling    = "case_resampling"
	StrategyLikelihood        = "likelihood"
	StrategyBayesianBootstrap = "bayesian_bootstrap"
)

// maxRefitAttempts bounds the retries for a degenerate resample before the
// whole simulation is failed. Silent skipping would bias the Monte Carlo
// estimate, so the draw either succeeds within the budget or aborts the run.
const maxRefitAttempts = 5

// randv2Source adapts a math/rand generator to the rand/v2 Source interface
// that gonum's distribution types draw from
type randv2Source struct {
	rng *rand.Rand
}

func (s randv2Source) Uint64() uint64 {
	return s.rng.Uint64()
}

// Seed satisfies golang.org/x/exp/rand.Source; gonum's distribution types
// never call it.
func (s randv2Source) Seed(seed uint64) {
	s.rng.Seed(int64(seed))
}
