package ports

import (
	"context"

	"evpi/domain/core"
	"evpi/domain/dataset"
)

// DatasetRepository provides read access to datasets stored in a database.
// The engine never writes through this port; result persistence is an
// external concern.
type DatasetRepository interface {
	// LoadTable reads a table of numeric columns plus a binary outcome
	// column into a dataset
	LoadTable(ctx context.Context, table string, outcomeKey core.ColumnKey) (*dataset.Dataset, error)

	// ListTables enumerates the tables available to load
	ListTables(ctx context.Context) ([]string, error)
}
