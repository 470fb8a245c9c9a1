package app

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evpi/adapters/model/logit"
	"evpi/adapters/oracle"
	"evpi/adapters/rng"
	"evpi/internal/errors"
	"evpi/internal/simulation"
	"evpi/internal/testkit"
)

func newTestService() *EVPIService {
	return NewEVPIService(logit.NewFitter(), rng.NewAdapter(), 4)
}

// TestEVPIService_Run exercises the full pipeline on a small development
// dataset: fit the proposed model, bootstrap the true-model distribution,
// and derive every output curve
func TestEVPIService_Run(t *testing.T) {
	ds := testkit.GenerateLogisticDataset(189, []float64{-1.1, 0.8, -0.5}, 31)

	result, err := newTestService().Run(context.Background(), RunRequest{
		Dataset:    ds,
		Iterations: 200,
		Thresholds: 50,
		GridMax:    0.5,
		Strategy:   oracle.StrategyCaseResampling,
		Seed:       42,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, oracle.StrategyCaseResampling, result.Strategy)
	assert.Len(t, result.Grid, 50)
	assert.Len(t, result.Derived.EVPI, 50)
	assert.Len(t, result.Relative, 50)
	assert.Equal(t, 200, result.Curves.Iterations)
	assert.NotEmpty(t, result.RunID.String())

	idx := result.Grid.IndexOf(0.2)
	evpi := result.Derived.EVPI[idx]
	assert.False(t, math.IsNaN(evpi) || math.IsInf(evpi, 0), "EVPI at z=0.2 must be finite")
	assert.GreaterOrEqual(t, evpi, -1e-12, "EVPI at z=0.2 must be non-negative")

	for i := range result.Grid {
		assert.GreaterOrEqual(t, result.Derived.EVPI[i], -1e-12,
			"EVPI must be non-negative at z=%v", result.Grid[i])
	}

	assert.InDelta(t, ds.Prevalence(), result.Summary.Prevalence, 1e-12)
	assert.GreaterOrEqual(t, result.Summary.MaxEVPI, result.Summary.MedianEVPI)
}

// TestEVPIService_Reproducible verifies a fixed seed reproduces the curves
// end to end, including the fitted proposed model
func TestEVPIService_Reproducible(t *testing.T) {
	ds := testkit.GenerateLogisticDataset(150, []float64{-0.9, 0.7}, 8)
	req := RunRequest{
		Dataset:    ds,
		Iterations: 100,
		Thresholds: 20,
		GridMax:    0.8,
		Seed:       7,
	}

	first, err := newTestService().Run(context.Background(), req)
	require.NoError(t, err)
	second, err := newTestService().Run(context.Background(), req)
	require.NoError(t, err)

	for i := range first.Grid {
		assert.InDelta(t, first.Curves.Max[i], second.Curves.Max[i], 1e-9)
		assert.InDelta(t, first.Derived.EVPI[i], second.Derived.EVPI[i], 1e-9)
	}

	require.NotNil(t, first.Manifest)
	assert.True(t, first.Manifest.Matches(second.Manifest),
		"replays of the same inputs should carry matching manifests")
	assert.NotEqual(t, first.Manifest.RunID, second.Manifest.RunID)
}

func TestEVPIService_Strategies(t *testing.T) {
	ds := testkit.GenerateLogisticDataset(150, []float64{-0.9, 0.7}, 8)

	for _, strategy := range []string{
		oracle.StrategyCaseResampling,
		oracle.StrategyLikelihood,
		oracle.StrategyBayesianBootstrap,
	} {
		result, err := newTestService().Run(context.Background(), RunRequest{
			Dataset:    ds,
			Iterations: 50,
			Thresholds: 10,
			GridMax:    0.5,
			Strategy:   strategy,
			Seed:       1,
		})
		require.NoError(t, err, "strategy %s", strategy)
		assert.Equal(t, strategy, result.Strategy)
	}
}

func TestEVPIService_RejectsBadInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	ds := testkit.GenerateLogisticDataset(100, []float64{-0.5, 0.5}, 3)

	_, err := svc.Run(ctx, RunRequest{Iterations: 10})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Run(ctx, RunRequest{Dataset: ds, Iterations: 0})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Run(ctx, RunRequest{Dataset: ds, Iterations: 10, Strategy: "jackknife"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Run(ctx, RunRequest{Dataset: ds, Iterations: 10, GridMax: 1.5})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

// TestEVPIService_RelativeCapped checks the capped display series aligns
// with the grid and never exceeds the ceiling on finite points
func TestEVPIService_RelativeCapped(t *testing.T) {
	ds := testkit.GenerateLogisticDataset(150, []float64{-1.0, 0.8}, 19)

	result, err := newTestService().Run(context.Background(), RunRequest{
		Dataset:    ds,
		Iterations: 100,
		Thresholds: 30,
		GridMax:    0.6,
		Seed:       5,
	})
	require.NoError(t, err)

	capped := result.Relative.Capped(10)
	require.Len(t, capped, len(result.Grid))
	for i, v := range capped {
		if result.Relative[i].Flag == simulation.FlagDegenerateZero {
			assert.True(t, math.IsNaN(v), "zero-degenerate point should stay NaN")
			continue
		}
		assert.LessOrEqual(t, v, 10.0)
	}
}
