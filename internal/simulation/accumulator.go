package simulation

import (
	"math"

	"evpi/domain/decision"
)

// accumulator keeps online per-threshold means of the three net-benefit
// quantities for one worker's share of the iterations, plus the second
// central moment of NB_model for Monte Carlo standard errors. The online
// update keeps floating-point accumulation bounded for long runs.
type accumulator struct {
	iterations int
	meanModel  []float64
	meanAll    []float64
	meanMax    []float64
	m2Model    []float64
}

func newAccumulator(thresholds int) *accumulator {
	return &accumulator{
		meanModel: make([]float64, thresholds),
		meanAll:   make([]float64, thresholds),
		meanMax:   make([]float64, thresholds),
		m2Model:   make([]float64, thresholds),
	}
}

// observe folds one draw's triple at threshold index ti into the running
// means. advance must be called once per draw after all thresholds.
func (a *accumulator) observe(ti int, t decision.NetBenefitTriple) {
	n := float64(a.iterations + 1)

	deltaModel := t.Model - a.meanModel[ti]
	a.meanModel[ti] += deltaModel / n
	a.m2Model[ti] += deltaModel * (t.Model - a.meanModel[ti])

	a.meanAll[ti] += (t.All - a.meanAll[ti]) / n
	a.meanMax[ti] += (t.Max - a.meanMax[ti]) / n
}

func (a *accumulator) advance() {
	a.iterations++
}

// merge folds other into a. The combination is the iteration-count-weighted
// mean, so merging partials in a fixed order is deterministic and equivalent
// (within floating-point tolerance) to a single sequential pass.
func (a *accumulator) merge(other *accumulator) {
	if other.iterations == 0 {
		return
	}
	if a.iterations == 0 {
		a.iterations = other.iterations
		copy(a.meanModel, other.meanModel)
		copy(a.meanAll, other.meanAll)
		copy(a.meanMax, other.meanMax)
		copy(a.m2Model, other.m2Model)
		return
	}

	na := float64(a.iterations)
	nb := float64(other.iterations)
	total := na + nb

	for i := range a.meanModel {
		delta := other.meanModel[i] - a.meanModel[i]
		a.m2Model[i] += other.m2Model[i] + delta*delta*na*nb/total
		a.meanModel[i] += delta * nb / total

		a.meanAll[i] += (other.meanAll[i] - a.meanAll[i]) * nb / total
		a.meanMax[i] += (other.meanMax[i] - a.meanMax[i]) * nb / total
	}
	a.iterations += other.iterations
}

// curves converts the accumulated state into the final expected net benefit
// curves aligned with the grid
func (a *accumulator) curves(grid decision.ThresholdGrid) *decision.ExpectedNetBenefitCurves {
	stderr := make([]float64, len(grid))
	if a.iterations > 1 {
		n := float64(a.iterations)
		for i := range stderr {
			stderr[i] = math.Sqrt(a.m2Model[i] / (n * (n - 1)))
		}
	}
	return &decision.ExpectedNetBenefitCurves{
		Grid:        grid,
		Model:       a.meanModel,
		All:         a.meanAll,
		Max:         a.meanMax,
		ModelStdErr: stderr,
		Iterations:  a.iterations,
	}
}
