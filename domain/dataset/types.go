package dataset

import (
	"fmt"
	"math/rand"

	"evpi/domain/core"
)

// StatisticalType defines predictor column types
type StatisticalType string

const (
	TypeNumeric     StatisticalType = "numeric"
	TypeBinary      StatisticalType = "binary"
	TypeCategorical StatisticalType = "categorical"
)

// ColumnMeta describes one predictor column
type ColumnMeta struct {
	Key             core.ColumnKey  `json:"key"`
	StatisticalType StatisticalType `json:"statistical_type"`
}

// Dataset is the canonical input to model fitting and simulation.
// Predictors are stored row-major (rows[i][j] = value of predictor j for
// row i) alongside a binary outcome vector aligned by row index.
// The engine treats a Dataset as immutable for the lifetime of a run.
type Dataset struct {
	ID       core.DatasetID `json:"id"`
	Rows     [][]float64    `json:"rows"`
	Outcomes []float64      `json:"outcomes"`
	Columns  []ColumnMeta   `json:"columns"`

	OutcomeKey core.ColumnKey `json:"outcome_key"`
	Source     string         `json:"source"` // "excel", "csv", "postgres", "synthetic"
	CreatedAt  core.Timestamp `json:"created_at"`
}

// New creates a dataset from row-major predictor data and an outcome vector
func New(rows [][]float64, outcomes []float64, columns []ColumnMeta, outcomeKey core.ColumnKey) *Dataset {
	return &Dataset{
		ID:         core.DatasetID(core.NewID()),
		Rows:       rows,
		Outcomes:   outcomes,
		Columns:    columns,
		OutcomeKey: outcomeKey,
		CreatedAt:  core.Now(),
	}
}

// RowCount returns the number of rows
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// PredictorCount returns the number of predictor columns
func (d *Dataset) PredictorCount() int {
	if len(d.Rows) == 0 {
		return len(d.Columns)
	}
	return len(d.Rows[0])
}

// Validate checks the dataset invariants required before any simulation work:
// non-empty, rectangular, outcome values restricted to {0,1} with both
// classes present.
func (d *Dataset) Validate() error {
	if len(d.Rows) == 0 {
		return fmt.Errorf("dataset is empty")
	}
	if len(d.Outcomes) != len(d.Rows) {
		return fmt.Errorf("outcome length %d does not match row count %d", len(d.Outcomes), len(d.Rows))
	}

	width := len(d.Rows[0])
	if width == 0 {
		return fmt.Errorf("dataset has no predictor columns")
	}
	for i, row := range d.Rows {
		if len(row) != width {
			return fmt.Errorf("row %d has %d predictors, expected %d", i, len(row), width)
		}
	}

	ones := 0
	for i, y := range d.Outcomes {
		switch y {
		case 0:
			// fine
		case 1:
			ones++
		default:
			return fmt.Errorf("outcome at row %d is %v, must be 0 or 1", i, y)
		}
	}
	if ones == 0 || ones == len(d.Outcomes) {
		return fmt.Errorf("outcome column has fewer than two distinct values")
	}

	return nil
}

// Prevalence returns the fraction of rows with outcome 1
func (d *Dataset) Prevalence() float64 {
	if len(d.Outcomes) == 0 {
		return 0
	}
	ones := 0.0
	for _, y := range d.Outcomes {
		if y == 1 {
			ones++
		}
	}
	return ones / float64(len(d.Outcomes))
}

// Subset returns a new dataset consisting of the given row indices, in order.
// Rows are shared, not copied; callers must treat them as read-only.
func (d *Dataset) Subset(indices []int) *Dataset {
	rows := make([][]float64, len(indices))
	outcomes := make([]float64, len(indices))
	for i, idx := range indices {
		rows[i] = d.Rows[idx]
		outcomes[i] = d.Outcomes[idx]
	}
	return &Dataset{
		ID:         d.ID,
		Rows:       rows,
		Outcomes:   outcomes,
		Columns:    d.Columns,
		OutcomeKey: d.OutcomeKey,
		Source:     d.Source,
		CreatedAt:  d.CreatedAt,
	}
}

// SampleWithReplacement draws n row indices uniformly with replacement,
// where n is the original row count, and returns the resampled dataset
func (d *Dataset) SampleWithReplacement(rng *rand.Rand) *Dataset {
	n := d.RowCount()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(n)
	}
	return d.Subset(indices)
}
