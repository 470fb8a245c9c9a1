// Package run records the provenance of a simulation run: everything needed
// to reproduce its curves bit-for-bit.
package run

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"evpi/domain/core"
	"evpi/domain/dataset"
	"evpi/domain/decision"
)

// Manifest is the truth source for replay. Two runs with equal fingerprints
// and the same code version produce identical curves.
type Manifest struct {
	RunID       core.RunID     `json:"run_id"`
	DatasetID   core.DatasetID `json:"dataset_id"`
	DatasetHash string         `json:"dataset_hash"`
	OutcomeKey  core.ColumnKey `json:"outcome_key"`
	Strategy    string         `json:"strategy"`
	Iterations  int            `json:"iterations"`
	GridHash    string         `json:"grid_hash"`
	Thresholds  int            `json:"thresholds"`
	Seed        int64          `json:"seed"`
	Fingerprint string         `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewManifest captures the determinism parameters of a run before it starts
func NewManifest(runID core.RunID, ds *dataset.Dataset, grid decision.ThresholdGrid, strategy string, iterations int, seed int64) *Manifest {
	m := &Manifest{
		RunID:       runID,
		DatasetID:   ds.ID,
		DatasetHash: HashDataset(ds),
		OutcomeKey:  ds.OutcomeKey,
		Strategy:    strategy,
		Iterations:  iterations,
		GridHash:    HashGrid(grid),
		Thresholds:  len(grid),
		Seed:        seed,
		CreatedAt:   core.Now(),
	}
	m.Fingerprint = m.computeFingerprint()
	return m
}

// computeFingerprint hashes the determinism parameters. RunID and CreatedAt
// are deliberately excluded so replays of the same inputs match.
func (m *Manifest) computeFingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%s|%d",
		m.DatasetHash, m.OutcomeKey, m.Strategy, m.Iterations, m.GridHash, m.Seed)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Matches reports whether another manifest describes the same computation
func (m *Manifest) Matches(other *Manifest) bool {
	return other != nil && m.Fingerprint == other.Fingerprint
}

// Validate checks the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return fmt.Errorf("run manifest: run_id cannot be empty")
	}
	if m.DatasetHash == "" {
		return fmt.Errorf("run manifest: dataset_hash cannot be empty")
	}
	if m.Iterations < 1 {
		return fmt.Errorf("run manifest: iterations must be >= 1")
	}
	if m.Fingerprint == "" {
		return fmt.Errorf("run manifest: fingerprint cannot be empty")
	}
	return nil
}

// HashDataset hashes the predictor values and outcomes by their exact bit
// patterns, so any change to the development data changes the fingerprint
func HashDataset(ds *dataset.Dataset) string {
	h := sha256.New()
	var buf [8]byte
	for _, row := range ds.Rows {
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	for _, y := range ds.Outcomes {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(y))
		h.Write(buf[:])
	}
	for _, col := range ds.Columns {
		h.Write([]byte(col.Key))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// HashGrid hashes the exact threshold values
func HashGrid(grid decision.ThresholdGrid) string {
	h := sha256.New()
	var buf [8]byte
	for _, z := range grid {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(z))
		h.Write(buf[:])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
