package decision

import (
	"math"
	"testing"
)

// TestNewUniformGrid_DefaultSpacing verifies the standard 99-point grid:
// 0.01, 0.02, ..., 0.99
func TestNewUniformGrid_DefaultSpacing(t *testing.T) {
	grid, err := NewUniformGrid(99, 0)
	if err != nil {
		t.Fatalf("NewUniformGrid failed: %v", err)
	}
	if len(grid) != 99 {
		t.Fatalf("Expected 99 thresholds, got %d", len(grid))
	}
	if math.Abs(grid[0]-0.01) > 1e-12 {
		t.Errorf("First threshold should be 0.01, got %v", grid[0])
	}
	if math.Abs(grid[98]-0.99) > 1e-12 {
		t.Errorf("Last threshold should be 0.99, got %v", grid[98])
	}
	if err := grid.Validate(); err != nil {
		t.Errorf("Default grid failed validation: %v", err)
	}
}

func TestNewUniformGrid_Invalid(t *testing.T) {
	if _, err := NewUniformGrid(0, 0.5); err == nil {
		t.Error("Zero count should be rejected")
	}
	if _, err := NewUniformGrid(10, 1.0); err == nil {
		t.Error("Max of 1.0 should be rejected")
	}
	if _, err := NewUniformGrid(10, -0.5); err == nil {
		t.Error("Negative max should be rejected")
	}
}

func TestThresholdGrid_Validate(t *testing.T) {
	cases := []struct {
		name string
		grid ThresholdGrid
		ok   bool
	}{
		{"valid", ThresholdGrid{0.1, 0.2, 0.3}, true},
		{"empty", ThresholdGrid{}, false},
		{"not increasing", ThresholdGrid{0.2, 0.1}, false},
		{"duplicate", ThresholdGrid{0.1, 0.1}, false},
		{"zero threshold", ThresholdGrid{0, 0.5}, false},
		{"one threshold", ThresholdGrid{0.5, 1}, false},
	}
	for _, tc := range cases {
		err := tc.grid.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected validation to fail", tc.name)
		}
	}
}

func TestThresholdGrid_IndexOf(t *testing.T) {
	grid, _ := NewUniformGrid(99, 0.99)
	if idx := grid.IndexOf(0.2); math.Abs(grid[idx]-0.2) > 1e-9 {
		t.Errorf("IndexOf(0.2) returned %d (%v)", idx, grid[idx])
	}
	if idx := grid.IndexOf(0.204); math.Abs(grid[idx]-0.20) > 1e-9 {
		t.Errorf("IndexOf(0.204) should snap to 0.20, got %v", grid[idx])
	}
}
