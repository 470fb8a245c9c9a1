package decision

import (
	"math"
	"testing"
)

// TestDerive_Identity checks EVPI(z) = INBPerfect(z) - INBCurrent(z) at every
// threshold, which holds exactly by construction
func TestDerive_Identity(t *testing.T) {
	curves := &ExpectedNetBenefitCurves{
		Grid:  ThresholdGrid{0.1, 0.2, 0.3, 0.4},
		Model: []float64{0.05, 0.02, -0.01, -0.03},
		All:   []float64{0.08, 0.01, -0.05, -0.10},
		Max:   []float64{0.09, 0.04, 0.01, 0.005},
	}

	d := Derive(curves)
	for i := range curves.Grid {
		diff := d.INBPerfect[i] - d.INBCurrent[i]
		if math.Abs(d.EVPI[i]-diff) > 1e-12 {
			t.Errorf("index %d: EVPI %v != INBPerfect - INBCurrent %v", i, d.EVPI[i], diff)
		}
	}
}

// TestDerive_FloorAtZero verifies the max(0, .) floors: when both model and
// treat-all are negative the current best is doing nothing, and incremental
// net benefits stay non-negative
func TestDerive_FloorAtZero(t *testing.T) {
	curves := &ExpectedNetBenefitCurves{
		Grid:  ThresholdGrid{0.5},
		Model: []float64{-0.2},
		All:   []float64{-0.4},
		Max:   []float64{0.03},
	}

	d := Derive(curves)
	if d.EVPI[0] != 0.03 {
		t.Errorf("EVPI should equal Max when defaults win, got %v", d.EVPI[0])
	}
	if d.INBCurrent[0] != 0 {
		t.Errorf("INBCurrent should be 0 when the model adds nothing, got %v", d.INBCurrent[0])
	}
	if d.INBPerfect[0] != 0.03 {
		t.Errorf("INBPerfect should be Max - 0, got %v", d.INBPerfect[0])
	}
}

// TestDerive_ModelBeatsAll covers the region where the proposed model is the
// current best strategy
func TestDerive_ModelBeatsAll(t *testing.T) {
	curves := &ExpectedNetBenefitCurves{
		Grid:  ThresholdGrid{0.3},
		Model: []float64{0.06},
		All:   []float64{0.02},
		Max:   []float64{0.07},
	}

	d := Derive(curves)
	if math.Abs(d.EVPI[0]-0.01) > 1e-12 {
		t.Errorf("EVPI should be Max - Model = 0.01, got %v", d.EVPI[0])
	}
	if math.Abs(d.INBCurrent[0]-0.04) > 1e-12 {
		t.Errorf("INBCurrent should be Model - All = 0.04, got %v", d.INBCurrent[0])
	}
}
