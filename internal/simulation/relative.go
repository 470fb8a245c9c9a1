package simulation

import (
	"encoding/json"
	"fmt"
	"math"

	"evpi/domain/decision"
)

// RatioFlag classifies each relative-EVPI point. Degenerate flags are
// designed outcomes, not errors: they are computed before any division is
// attempted so consumers never have to detect NaN or Inf themselves.
type RatioFlag string

const (
	// FlagNormal marks a finite ratio
	FlagNormal RatioFlag = "normal"
	// FlagDegenerateZero marks 0/0: neither current nor perfect information
	// beats the default decisions; no further development is warranted at
	// this threshold
	FlagDegenerateZero RatioFlag = "degenerate_zero"
	// FlagDegenerateInfinite marks positive/0: current information cannot
	// beat the defaults but perfect information could; more development
	// sample may be justified
	FlagDegenerateInfinite RatioFlag = "degenerate_infinite"
)

// RelativePoint is one relative-EVPI value with its degeneracy flag.
// Value is NaN for FlagDegenerateZero and +Inf for FlagDegenerateInfinite.
type RelativePoint struct {
	Threshold float64   `json:"threshold"`
	Value     float64   `json:"value"`
	Flag      RatioFlag `json:"flag"`
}

// MarshalJSON renders non-finite values as null; the flag carries the
// degenerate meaning, so JSON consumers never see NaN or Inf
func (p RelativePoint) MarshalJSON() ([]byte, error) {
	out := struct {
		Threshold float64   `json:"threshold"`
		Value     *float64  `json:"value"`
		Flag      RatioFlag `json:"flag"`
	}{Threshold: p.Threshold, Flag: p.Flag}
	if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
		out.Value = &p.Value
	}
	return json.Marshal(out)
}

// RelativeEVPICurve is the relative-EVPI series aligned with the grid
type RelativeEVPICurve []RelativePoint

// zeroTolerance absorbs floating-point noise in incremental net benefits,
// which are non-negative by construction (max(0, .) terms) but arrive here
// through subtractions.
const zeroTolerance = 1e-12

// BuildRelativeCurve computes INB_perfect / INB_current per threshold with
// explicit degenerate handling
func BuildRelativeCurve(grid decision.ThresholdGrid, derived *decision.DerivedCurves) (RelativeEVPICurve, error) {
	if len(derived.INBCurrent) != len(grid) || len(derived.INBPerfect) != len(grid) {
		return nil, fmt.Errorf("curve lengths (%d, %d) do not match grid length %d",
			len(derived.INBCurrent), len(derived.INBPerfect), len(grid))
	}

	curve := make(RelativeEVPICurve, len(grid))
	for i, z := range grid {
		current := derived.INBCurrent[i]
		perfect := derived.INBPerfect[i]

		point := RelativePoint{Threshold: z}
		switch {
		case current <= zeroTolerance && perfect <= zeroTolerance:
			point.Flag = FlagDegenerateZero
			point.Value = math.NaN()
		case current <= zeroTolerance:
			point.Flag = FlagDegenerateInfinite
			point.Value = math.Inf(1)
		default:
			point.Flag = FlagNormal
			point.Value = perfect / current
		}
		curve[i] = point
	}
	return curve, nil
}

// Capped returns a display series where finite values above ceiling are
// clamped to ceiling and infinite points are reported at the ceiling too.
// Zero-degenerate points stay NaN. Flags on the curve itself are unaffected
// by clamping; capping is a presentation transform, not part of the result.
func (c RelativeEVPICurve) Capped(ceiling float64) []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		switch {
		case p.Flag == FlagDegenerateZero:
			out[i] = math.NaN()
		case p.Flag == FlagDegenerateInfinite || p.Value > ceiling:
			out[i] = ceiling
		default:
			out[i] = p.Value
		}
	}
	return out
}
