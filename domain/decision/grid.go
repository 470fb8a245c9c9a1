package decision

import "fmt"

// DefaultGridMax is the upper bound used when constructing uniform grids.
// Thresholds approaching 1 blow up the odds term z/(1-z), so grids stop
// short of it.
const DefaultGridMax = 0.99

// ThresholdGrid is a strictly increasing sequence of decision thresholds,
// all in (0,1), fixed for the duration of a run
type ThresholdGrid []float64

// NewUniformGrid builds a grid of count equally spaced thresholds
// (max/count, 2*max/count, ..., max). A max of 0 selects DefaultGridMax.
func NewUniformGrid(count int, max float64) (ThresholdGrid, error) {
	if count < 1 {
		return nil, fmt.Errorf("threshold count must be >= 1, got %d", count)
	}
	if max == 0 {
		max = DefaultGridMax
	}
	if max <= 0 || max >= 1 {
		return nil, fmt.Errorf("grid maximum must be in (0,1), got %v", max)
	}

	grid := make(ThresholdGrid, count)
	step := max / float64(count)
	for i := range grid {
		grid[i] = step * float64(i+1)
	}
	return grid, nil
}

// Validate checks the grid invariants: non-empty, strictly increasing,
// every value in the open interval (0,1)
func (g ThresholdGrid) Validate() error {
	if len(g) == 0 {
		return fmt.Errorf("threshold grid is empty")
	}
	prev := 0.0
	for i, z := range g {
		if z <= 0 || z >= 1 {
			return fmt.Errorf("threshold at index %d is %v, must be in (0,1)", i, z)
		}
		if z <= prev {
			return fmt.Errorf("threshold grid is not strictly increasing at index %d (%v <= %v)", i, z, prev)
		}
		prev = z
	}
	return nil
}

// IndexOf returns the index of the grid point closest to z
func (g ThresholdGrid) IndexOf(z float64) int {
	best := 0
	bestDist := -1.0
	for i, v := range g {
		d := v - z
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
