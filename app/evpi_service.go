package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"evpi/adapters/oracle"
	"evpi/domain/core"
	"evpi/domain/dataset"
	"evpi/domain/decision"
	"evpi/domain/run"
	"evpi/internal"
	"evpi/internal/errors"
	"evpi/internal/simulation"
	"evpi/ports"

	"github.com/montanaflynn/stats"
)

// RunRequest describes one EVPI computation
type RunRequest struct {
	Dataset *dataset.Dataset

	// Proposed is the proposed model's predictions on Dataset. Nil means the
	// service fits the proposed model itself with its configured fitter.
	Proposed decision.ProbabilityVector

	// Grid is used when non-nil; otherwise a uniform grid of Thresholds
	// points up to GridMax is built.
	Grid       decision.ThresholdGrid
	Thresholds int
	GridMax    float64

	Iterations int
	Strategy   string // oracle.Strategy* selector
	Seed       int64
}

// RunResult is the full in-memory output of one run
type RunResult struct {
	RunID core.RunID             `json:"run_id"`
	Grid  decision.ThresholdGrid `json:"grid"`

	Curves   *decision.ExpectedNetBenefitCurves `json:"curves"`
	Derived  *decision.DerivedCurves            `json:"derived"`
	Relative simulation.RelativeEVPICurve       `json:"relative_evpi"`
	Manifest *run.Manifest                      `json:"manifest"`

	Proposed decision.ProbabilityVector `json:"-"`
	Strategy string                     `json:"strategy"`
	Summary  RunSummary                 `json:"summary"`
	Elapsed  time.Duration              `json:"elapsed_ns"`
}

// RunSummary condenses the EVPI curve for reporting
type RunSummary struct {
	MaxEVPI          float64 `json:"max_evpi"`
	MaxEVPIThreshold float64 `json:"max_evpi_threshold"`
	MedianEVPI       float64 `json:"median_evpi"`
	P90EVPI          float64 `json:"p90_evpi"`
	MeanModelStdErr  float64 `json:"mean_model_stderr"`
	Prevalence       float64 `json:"prevalence"`
}

// EVPIService wires the fitter, oracles and engine into the single public
// entry point
type EVPIService struct {
	fitter  ports.ModelFitter
	rngPort ports.RNGPort
	workers int
	logger  *internal.Logger
}

// NewEVPIService creates the service. workers <= 0 selects GOMAXPROCS.
func NewEVPIService(fitter ports.ModelFitter, rngPort ports.RNGPort, workers int) *EVPIService {
	return &EVPIService{
		fitter:  fitter,
		rngPort: rngPort,
		workers: workers,
		logger:  internal.Component("EVPIService"),
	}
}

// Run validates the request, fits the proposed model when needed, runs the
// Monte Carlo simulation and derives all output curves
func (s *EVPIService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.Dataset == nil {
		return nil, errors.InvalidInput("dataset is required")
	}
	if err := req.Dataset.Validate(); err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid dataset: %v", err))
	}
	if req.Iterations < 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("iterations must be >= 1, got %d", req.Iterations))
	}

	grid := req.Grid
	if grid == nil {
		count := req.Thresholds
		if count == 0 {
			count = 99
		}
		var err error
		grid, err = decision.NewUniformGrid(count, req.GridMax)
		if err != nil {
			return nil, errors.InvalidInput(err.Error())
		}
	}
	if err := grid.Validate(); err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid threshold grid: %v", err))
	}

	proposed := req.Proposed
	var proposedModel ports.FittedModel
	if proposed == nil {
		s.logger.Info("fitting proposed model on %d rows", req.Dataset.RowCount())
		model, err := s.fitter.Fit(ctx, req.Dataset)
		if err != nil {
			return nil, errors.Wrap(err, "fitting the proposed model failed")
		}
		proposedModel = model
		proposed = model.PredictProbability(req.Dataset)
	}

	orc, err := s.buildOracle(ctx, req, proposedModel)
	if err != nil {
		return nil, err
	}

	runID := core.RunID(core.NewID())
	start := time.Now()

	manifest := run.NewManifest(runID, req.Dataset, grid, orc.Name(), req.Iterations, req.Seed)

	engine := simulation.NewEngine(s.rngPort, s.workers)
	curves, err := engine.Run(ctx, simulation.RunParams{
		RunID:      runID.String(),
		Proposed:   proposed,
		Dataset:    req.Dataset,
		Grid:       grid,
		Iterations: req.Iterations,
		Oracle:     orc,
		Seed:       req.Seed,
	})
	if err != nil {
		return nil, err
	}

	derived := decision.Derive(curves)
	relative, err := simulation.BuildRelativeCurve(grid, derived)
	if err != nil {
		return nil, errors.InternalError(err.Error())
	}

	return &RunResult{
		RunID:    runID,
		Grid:     grid,
		Curves:   curves,
		Derived:  derived,
		Relative: relative,
		Manifest: manifest,
		Proposed: proposed,
		Strategy: orc.Name(),
		Summary:  summarize(grid, curves, derived, req.Dataset),
		Elapsed:  time.Since(start),
	}, nil
}

// buildOracle maps the strategy selector to a TrueModelOracle. The
// likelihood strategy needs the fitted proposed model for its parameter
// distribution, so it fits one when the caller supplied raw predictions.
func (s *EVPIService) buildOracle(ctx context.Context, req RunRequest, proposedModel ports.FittedModel) (ports.TrueModelOracle, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = oracle.StrategyCaseResampling
	}

	switch strategy {
	case oracle.StrategyCaseResampling:
		return oracle.NewCaseResamplingOracle(req.Dataset, s.fitter), nil
	case oracle.StrategyBayesianBootstrap:
		return oracle.NewBayesianBootstrapOracle(req.Dataset, s.fitter), nil
	case oracle.StrategyLikelihood:
		if proposedModel == nil {
			model, err := s.fitter.Fit(ctx, req.Dataset)
			if err != nil {
				return nil, errors.Wrap(err, "fitting the model for likelihood sampling failed")
			}
			proposedModel = model
		}
		return oracle.NewLikelihoodOracle(req.Dataset, proposedModel), nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown sampling strategy %q", strategy))
	}
}

func summarize(grid decision.ThresholdGrid, curves *decision.ExpectedNetBenefitCurves, derived *decision.DerivedCurves, ds *dataset.Dataset) RunSummary {
	summary := RunSummary{Prevalence: ds.Prevalence()}

	maxEVPI := math.Inf(-1)
	for i, v := range derived.EVPI {
		if v > maxEVPI {
			maxEVPI = v
			summary.MaxEVPIThreshold = grid[i]
		}
	}
	summary.MaxEVPI = maxEVPI

	if median, err := stats.Median(derived.EVPI); err == nil {
		summary.MedianEVPI = median
	}
	if p90, err := stats.Percentile(derived.EVPI, 90); err == nil {
		summary.P90EVPI = p90
	}
	if meanSE, err := stats.Mean(curves.ModelStdErr); err == nil {
		summary.MeanModelStdErr = meanSE
	}

	return summary
}
