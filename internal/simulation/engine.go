package simulation

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"evpi/domain/dataset"
	"evpi/domain/decision"
	"evpi/internal"
	"evpi/internal/errors"
	"evpi/ports"

	"golang.org/x/sync/errgroup"
)

// Engine runs the Monte Carlo simulation: per iteration it obtains one
// simulated true-risk vector from the oracle and folds the three net-benefit
// quantities at every grid threshold into running means. Iterations are
// independent, so they are spread across workers; per-worker partials are
// merged in worker order, and per-iteration RNG streams derived from the base
// seed alone make a fixed seed reproducible under any worker count and
// across runs.
type Engine struct {
	rngPort ports.RNGPort
	workers int
	logger  *internal.Logger
}

// NewEngine creates an engine. workers <= 0 selects GOMAXPROCS.
func NewEngine(rngPort ports.RNGPort, workers int) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		rngPort: rngPort,
		workers: workers,
		logger:  internal.Component("Engine"),
	}
}

// RunParams are the inputs to one simulation run
type RunParams struct {
	RunID      string
	Proposed   decision.ProbabilityVector
	Dataset    *dataset.Dataset
	Grid       decision.ThresholdGrid
	Iterations int
	Oracle     ports.TrueModelOracle
	Seed       int64
}

// Run executes the simulation and returns the expected net benefit curves.
// Input validation errors and exhausted-retry refit failures abort the whole
// run; no partial curves are ever returned.
func (e *Engine) Run(ctx context.Context, params RunParams) (*decision.ExpectedNetBenefitCurves, error) {
	if err := e.validate(params); err != nil {
		return nil, err
	}

	workers := e.workers
	if workers > params.Iterations {
		workers = params.Iterations
	}

	e.logger.Info("run %s: %d iterations, %d thresholds, %d workers, strategy=%s",
		params.RunID, params.Iterations, len(params.Grid), workers, params.Oracle.Name())
	start := time.Now()

	partials := make([]*accumulator, workers)
	g, gctx := errgroup.WithContext(ctx)

	perWorker := params.Iterations / workers
	remainder := params.Iterations % workers
	next := 0
	for w := 0; w < workers; w++ {
		count := perWorker
		if w < remainder {
			count++
		}
		w, lo, hi := w, next, next+count
		next = hi

		g.Go(func() error {
			acc := newAccumulator(len(params.Grid))
			for iter := lo; iter < hi; iter++ {
				rng, err := e.rngPort.IterationStream(gctx, iter, params.Seed)
				if err != nil {
					return err
				}

				trueRisk, err := params.Oracle.Draw(gctx, rng)
				if err != nil {
					return errors.RefitFailure(iter, err)
				}
				if len(trueRisk) != params.Dataset.RowCount() {
					return errors.InternalError(fmt.Sprintf(
						"oracle draw at iteration %d has %d entries, expected %d",
						iter, len(trueRisk), params.Dataset.RowCount()))
				}

				for ti, z := range params.Grid {
					acc.observe(ti, decision.EvaluateTriple(params.Proposed, trueRisk, z))
				}
				acc.advance()
			}
			partials[w] = acc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := newAccumulator(len(params.Grid))
	for _, p := range partials {
		merged.merge(p)
	}

	e.logger.Info("run %s completed in %v", params.RunID, time.Since(start))
	return merged.curves(params.Grid), nil
}

func (e *Engine) validate(params RunParams) error {
	if params.Iterations < 1 {
		return errors.InvalidInput(fmt.Sprintf("iterations must be >= 1, got %d", params.Iterations))
	}
	if params.Oracle == nil {
		return errors.InvalidInput("oracle is required")
	}
	if params.Dataset == nil {
		return errors.InvalidInput("dataset is required")
	}
	if err := params.Dataset.Validate(); err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid dataset: %v", err))
	}
	if err := params.Grid.Validate(); err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid threshold grid: %v", err))
	}
	if err := params.Proposed.Validate(params.Dataset.RowCount()); err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid proposed model predictions: %v", err))
	}
	return nil
}
