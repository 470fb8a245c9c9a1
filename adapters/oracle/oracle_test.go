package oracle

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"evpi/adapters/model/logit"
	"evpi/domain/dataset"
	"evpi/internal/errors"
	"evpi/internal/testkit"
	"evpi/ports"
)

func oracleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	return testkit.GenerateLogisticDataset(200, []float64{-0.8, 0.9, -0.3}, 13)
}

func checkDraw(t *testing.T, ds *dataset.Dataset, draw func(*rand.Rand) ([]float64, error)) {
	t.Helper()
	risks, err := draw(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if len(risks) != ds.RowCount() {
		t.Fatalf("Draw returned %d risks, expected %d", len(risks), ds.RowCount())
	}
	for i, p := range risks {
		if p < 0 || p > 1 || math.IsNaN(p) {
			t.Errorf("Risk at row %d is %v, must be in [0,1]", i, p)
		}
	}
}

func TestCaseResamplingOracle_Draw(t *testing.T) {
	ds := oracleDataset(t)
	orc := NewCaseResamplingOracle(ds, logit.NewFitter())
	if orc.Name() != StrategyCaseResampling {
		t.Errorf("Unexpected name %s", orc.Name())
	}
	checkDraw(t, ds, func(rng *rand.Rand) ([]float64, error) {
		return orc.Draw(context.Background(), rng)
	})
}

func TestBayesianBootstrapOracle_Draw(t *testing.T) {
	ds := oracleDataset(t)
	orc := NewBayesianBootstrapOracle(ds, logit.NewFitter())
	if orc.Name() != StrategyBayesianBootstrap {
		t.Errorf("Unexpected name %s", orc.Name())
	}
	checkDraw(t, ds, func(rng *rand.Rand) ([]float64, error) {
		return orc.Draw(context.Background(), rng)
	})
}

func TestLikelihoodOracle_Draw(t *testing.T) {
	ds := oracleDataset(t)
	model, err := logit.NewFitter().Fit(context.Background(), ds)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	orc := NewLikelihoodOracle(ds, model)
	if orc.Name() != StrategyLikelihood {
		t.Errorf("Unexpected name %s", orc.Name())
	}
	checkDraw(t, ds, func(rng *rand.Rand) ([]float64, error) {
		return orc.Draw(context.Background(), rng)
	})
}

// TestOracle_DrawsVary verifies distinct generators produce distinct draws;
// a constant oracle would make the simulation collapse to a point estimate
func TestOracle_DrawsVary(t *testing.T) {
	ds := oracleDataset(t)
	orc := NewCaseResamplingOracle(ds, logit.NewFitter())

	a, err := orc.Draw(context.Background(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("First draw failed: %v", err)
	}
	b, err := orc.Draw(context.Background(), rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("Second draw failed: %v", err)
	}

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Draws from different seeds should differ")
	}
}

func TestOracle_DrawsReproducible(t *testing.T) {
	ds := oracleDataset(t)
	orc := NewCaseResamplingOracle(ds, logit.NewFitter())

	a, err := orc.Draw(context.Background(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	b, err := orc.Draw(context.Background(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("Same generator seed should reproduce the draw")
		}
	}
}

// alwaysFailFitter exhausts the retry budget
type alwaysFailFitter struct {
	calls int
}

func (f *alwaysFailFitter) Fit(ctx context.Context, ds *dataset.Dataset) (ports.FittedModel, error) {
	f.calls++
	return nil, errors.RefitError("induced failure", nil)
}

func (f *alwaysFailFitter) FitWeighted(ctx context.Context, ds *dataset.Dataset, weights []float64) (ports.FittedModel, error) {
	f.calls++
	return nil, errors.RefitError("induced failure", nil)
}

// TestCaseResamplingOracle_RetryBudget verifies the draw retries a bounded
// number of times and then surfaces the failure instead of skipping the
// iteration
func TestCaseResamplingOracle_RetryBudget(t *testing.T) {
	ds := oracleDataset(t)
	fitter := &alwaysFailFitter{}
	orc := NewCaseResamplingOracle(ds, fitter)

	_, err := orc.Draw(context.Background(), rand.New(rand.NewSource(1)))
	if err == nil {
		t.Fatal("Draw should fail when every refit fails")
	}
	if fitter.calls != maxRefitAttempts {
		t.Errorf("Expected %d attempts, got %d", maxRefitAttempts, fitter.calls)
	}
}

func TestBayesianBootstrapOracle_RetryBudget(t *testing.T) {
	ds := oracleDataset(t)
	fitter := &alwaysFailFitter{}
	orc := NewBayesianBootstrapOracle(ds, fitter)

	if _, err := orc.Draw(context.Background(), rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("Draw should fail when every weighted refit fails")
	}
	if fitter.calls != maxRefitAttempts {
		t.Errorf("Expected %d attempts, got %d", maxRefitAttempts, fitter.calls)
	}
}
