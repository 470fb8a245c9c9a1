package simulation

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"evpi/domain/decision"
)

// TestBuildRelativeCurve_Flags covers all three outcomes in one curve:
// 0/0 at the first threshold, positive/0 at the second, a finite ratio at
// the third
func TestBuildRelativeCurve_Flags(t *testing.T) {
	grid := decision.ThresholdGrid{0.1, 0.2, 0.3}
	derived := &decision.DerivedCurves{
		EVPI:       []float64{0, 0.3, 0},
		INBCurrent: []float64{0, 0, 0.5},
		INBPerfect: []float64{0, 0.3, 0.5},
	}

	curve, err := BuildRelativeCurve(grid, derived)
	if err != nil {
		t.Fatalf("BuildRelativeCurve failed: %v", err)
	}

	if curve[0].Flag != FlagDegenerateZero {
		t.Errorf("0/0 should flag degenerate_zero, got %s", curve[0].Flag)
	}
	if !math.IsNaN(curve[0].Value) {
		t.Errorf("degenerate_zero value should be NaN, got %v", curve[0].Value)
	}

	if curve[1].Flag != FlagDegenerateInfinite {
		t.Errorf("positive/0 should flag degenerate_infinite, got %s", curve[1].Flag)
	}
	if !math.IsInf(curve[1].Value, 1) {
		t.Errorf("degenerate_infinite value should be +Inf, got %v", curve[1].Value)
	}

	if curve[2].Flag != FlagNormal {
		t.Errorf("Finite ratio should flag normal, got %s", curve[2].Flag)
	}
	if math.Abs(curve[2].Value-1.0) > 1e-12 {
		t.Errorf("Ratio should be 1.0, got %v", curve[2].Value)
	}
}

// TestBuildRelativeCurve_Tolerance verifies floating-point noise below the
// tolerance is treated as zero rather than producing a huge finite ratio
func TestBuildRelativeCurve_Tolerance(t *testing.T) {
	grid := decision.ThresholdGrid{0.5}
	derived := &decision.DerivedCurves{
		EVPI:       []float64{0.2},
		INBCurrent: []float64{1e-15},
		INBPerfect: []float64{0.2},
	}

	curve, err := BuildRelativeCurve(grid, derived)
	if err != nil {
		t.Fatalf("BuildRelativeCurve failed: %v", err)
	}
	if curve[0].Flag != FlagDegenerateInfinite {
		t.Errorf("Near-zero denominator should flag degenerate_infinite, got %s", curve[0].Flag)
	}
}

func TestBuildRelativeCurve_LengthMismatch(t *testing.T) {
	grid := decision.ThresholdGrid{0.1, 0.2}
	derived := &decision.DerivedCurves{
		INBCurrent: []float64{0.1},
		INBPerfect: []float64{0.2},
	}
	if _, err := BuildRelativeCurve(grid, derived); err == nil {
		t.Error("Mismatched curve lengths should be rejected")
	}
}

// TestRelativeEVPICurve_Capped verifies capping is a pure presentation
// transform: clamp finite values above the ceiling, report infinite points at
// the ceiling, keep NaN for zero-degenerate points, and never touch the flags
func TestRelativeEVPICurve_Capped(t *testing.T) {
	curve := RelativeEVPICurve{
		{Threshold: 0.1, Value: math.NaN(), Flag: FlagDegenerateZero},
		{Threshold: 0.2, Value: math.Inf(1), Flag: FlagDegenerateInfinite},
		{Threshold: 0.3, Value: 25.0, Flag: FlagNormal},
		{Threshold: 0.4, Value: 2.5, Flag: FlagNormal},
	}

	capped := curve.Capped(10)
	if !math.IsNaN(capped[0]) {
		t.Errorf("Zero-degenerate point should stay NaN, got %v", capped[0])
	}
	if capped[1] != 10 {
		t.Errorf("Infinite point should cap at 10, got %v", capped[1])
	}
	if capped[2] != 10 {
		t.Errorf("Value above ceiling should cap at 10, got %v", capped[2])
	}
	if capped[3] != 2.5 {
		t.Errorf("Value below ceiling should pass through, got %v", capped[3])
	}

	if !math.IsInf(curve[1].Value, 1) {
		t.Error("Capping must not mutate the underlying curve")
	}
	if curve[2].Flag != FlagNormal {
		t.Error("Capping must not change flags")
	}
}

// TestRelativeEVPICurve_MarshalJSON verifies degenerate points encode as
// null values instead of failing the whole encode
func TestRelativeEVPICurve_MarshalJSON(t *testing.T) {
	curve := RelativeEVPICurve{
		{Threshold: 0.1, Value: math.NaN(), Flag: FlagDegenerateZero},
		{Threshold: 0.2, Value: math.Inf(1), Flag: FlagDegenerateInfinite},
		{Threshold: 0.3, Value: 1.5, Flag: FlagNormal},
	}

	data, err := json.Marshal(curve)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded []struct {
		Threshold float64  `json:"threshold"`
		Value     *float64 `json:"value"`
		Flag      string   `json:"flag"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded[0].Value != nil || decoded[1].Value != nil {
		t.Error("Degenerate points should encode a null value")
	}
	if decoded[2].Value == nil || *decoded[2].Value != 1.5 {
		t.Errorf("Normal point should keep its value, got %v", decoded[2].Value)
	}
	if !strings.Contains(string(data), string(FlagDegenerateInfinite)) {
		t.Error("Flags should survive encoding")
	}
}
