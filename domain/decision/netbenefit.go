package decision

import "fmt"

// ProbabilityVector holds predicted risks in [0,1], one per dataset row,
// aligned by row index with the dataset it was computed against
type ProbabilityVector []float64

// Validate checks length and range
func (p ProbabilityVector) Validate(rowCount int) error {
	if len(p) != rowCount {
		return fmt.Errorf("probability vector has %d entries, expected %d", len(p), rowCount)
	}
	for i, v := range p {
		if v < 0 || v > 1 || v != v {
			return fmt.Errorf("probability at row %d is %v, must be in [0,1]", i, v)
		}
	}
	return nil
}

// NetBenefit computes the net benefit of a binary decision rule at threshold z
// against reference probabilities ref:
//
//	NB = mean_i( treat_i * (ref_i - (1-ref_i) * z/(1-z)) )
//
// ref_i is either an observed 0/1 outcome or a simulated true risk. The odds
// term z/(1-z) is finite for any z in (0,1); grid construction is responsible
// for keeping z strictly inside that interval.
func NetBenefit(treat []bool, ref ProbabilityVector, z float64) float64 {
	if len(treat) == 0 || len(treat) != len(ref) {
		return 0
	}
	odds := z / (1 - z)
	sum := 0.0
	for i, t := range treat {
		if t {
			sum += ref[i] - (1-ref[i])*odds
		}
	}
	return sum / float64(len(treat))
}

// NetBenefitTriple holds the three net-benefit quantities evaluated at one
// threshold for one Monte Carlo draw
type NetBenefitTriple struct {
	Model float64 // treat when the proposed model's prediction exceeds z
	All   float64 // treat everyone
	Max   float64 // treat when the draw's true risk exceeds z
}

// EvaluateTriple computes NB_model, NB_all and NB_max in a single pass over
// the rows, using the draw's true risks as the reference probabilities.
// The treat-if-true-risk-exceeds-z rule keeps exactly the rows whose
// per-row term is positive, so Max >= Model and Max >= All for every draw.
func EvaluateTriple(proposed, trueRisk ProbabilityVector, z float64) NetBenefitTriple {
	n := len(trueRisk)
	if n == 0 || len(proposed) != n {
		return NetBenefitTriple{}
	}

	odds := z / (1 - z)
	var sumModel, sumAll, sumMax float64
	for i := 0; i < n; i++ {
		term := trueRisk[i] - (1-trueRisk[i])*odds
		sumAll += term
		if proposed[i] > z {
			sumModel += term
		}
		if trueRisk[i] > z {
			sumMax += term
		}
	}

	fn := float64(n)
	return NetBenefitTriple{
		Model: sumModel / fn,
		All:   sumAll / fn,
		Max:   sumMax / fn,
	}
}
