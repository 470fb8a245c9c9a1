// Package testkit provides synthetic data and fake collaborators for tests.
package testkit

import (
	"context"
	"math"
	"math/rand"

	"evpi/domain/core"
	"evpi/domain/dataset"
	"evpi/domain/decision"
)

// GenerateLogisticDataset builds a synthetic binary-outcome dataset whose
// true risks follow a logistic model. beta is intercept-first; the number of
// predictors is len(beta)-1, each drawn standard normal.
func GenerateLogisticDataset(n int, beta []float64, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	p := len(beta) - 1

	rows := make([][]float64, n)
	outcomes := make([]float64, n)
	columns := make([]dataset.ColumnMeta, p)
	for j := range columns {
		columns[j] = dataset.ColumnMeta{
			Key:             core.ColumnKey(string(rune('a' + j)) + "_predictor"),
			StatisticalType: dataset.TypeNumeric,
		}
	}

	for i := 0; i < n; i++ {
		row := make([]float64, p)
		eta := beta[0]
		for j := 0; j < p; j++ {
			row[j] = rng.NormFloat64()
			eta += beta[j+1] * row[j]
		}
		rows[i] = row

		risk := 1 / (1 + math.Exp(-eta))
		if rng.Float64() < risk {
			outcomes[i] = 1
		}
	}

	ds := dataset.New(rows, outcomes, columns, "outcome")
	ds.Source = "synthetic"
	return ds
}

// TrueRisks returns the generating-model risks for a dataset built by
// GenerateLogisticDataset with the same beta
func TrueRisks(ds *dataset.Dataset, beta []float64) decision.ProbabilityVector {
	risks := make(decision.ProbabilityVector, ds.RowCount())
	for i, row := range ds.Rows {
		eta := beta[0]
		for j, v := range row {
			eta += beta[j+1] * v
		}
		risks[i] = 1 / (1 + math.Exp(-eta))
	}
	return risks
}

// StubOracle returns a fixed probability vector on every draw
type StubOracle struct {
	Risks decision.ProbabilityVector
}

func (o *StubOracle) Name() string { return "stub" }

func (o *StubOracle) Draw(ctx context.Context, rng *rand.Rand) (decision.ProbabilityVector, error) {
	return o.Risks, nil
}

// NoisyOracle perturbs a base vector with bounded uniform noise per draw,
// keeping values inside [0,1]
type NoisyOracle struct {
	Base  decision.ProbabilityVector
	Noise float64
}

func (o *NoisyOracle) Name() string { return "noisy" }

func (o *NoisyOracle) Draw(ctx context.Context, rng *rand.Rand) (decision.ProbabilityVector, error) {
	out := make(decision.ProbabilityVector, len(o.Base))
	for i, v := range o.Base {
		p := v + (rng.Float64()*2-1)*o.Noise
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		out[i] = p
	}
	return out, nil
}

// FailingOracle fails every draw, for exercising the abort-on-refit-failure
// path
type FailingOracle struct {
	Err error
}

func (o *FailingOracle) Name() string { return "failing" }

func (o *FailingOracle) Draw(ctx context.Context, rng *rand.Rand) (decision.ProbabilityVector, error) {
	return nil, o.Err
}
