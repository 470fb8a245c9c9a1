package decision

// ExpectedNetBenefitCurves holds the Monte Carlo means of the three
// net-benefit quantities, one value per grid threshold. Immutable once the
// simulation that produced it completes.
type ExpectedNetBenefitCurves struct {
	Grid  ThresholdGrid `json:"grid"`
	Model []float64     `json:"enb_model"`
	All   []float64     `json:"enb_all"`
	Max   []float64     `json:"enb_max"`

	// ModelStdErr is the Monte Carlo standard error of ENB_model at each
	// threshold, accumulated from per-draw second moments.
	ModelStdErr []float64 `json:"enb_model_stderr"`

	Iterations int `json:"iterations"`
}

// DerivedCurves are computed once from the expected net benefit curves after
// simulation ends
type DerivedCurves struct {
	// EVPI(z) = ENB_max(z) - max(0, ENB_model(z), ENB_all(z))
	EVPI []float64 `json:"evpi"`
	// INBCurrent(z) = max(0, ENB_model(z), ENB_all(z)) - max(0, ENB_all(z))
	INBCurrent []float64 `json:"inb_current"`
	// INBPerfect(z) = ENB_max(z) - max(0, ENB_all(z))
	INBPerfect []float64 `json:"inb_perfect"`
}

// Derive computes the EVPI and incremental net benefit curves. For every z,
// EVPI(z) = INBPerfect(z) - INBCurrent(z) holds exactly by construction.
func Derive(c *ExpectedNetBenefitCurves) *DerivedCurves {
	n := len(c.Grid)
	d := &DerivedCurves{
		EVPI:       make([]float64, n),
		INBCurrent: make([]float64, n),
		INBPerfect: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		bestCurrent := max3(0, c.Model[i], c.All[i])
		bestDefault := max2(0, c.All[i])

		d.EVPI[i] = c.Max[i] - bestCurrent
		d.INBCurrent[i] = bestCurrent - bestDefault
		d.INBPerfect[i] = c.Max[i] - bestDefault
	}
	return d
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func max3(a, b, c float64) float64 {
	return max2(max2(a, b), c)
}
