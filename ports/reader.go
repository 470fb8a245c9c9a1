package ports

import (
	"context"

	"evpi/domain/core"
	"evpi/domain/dataset"
)

// DatasetReaderPort loads a dataset from an external source (file, table).
// The outcome column is named by the caller; all remaining numeric columns
// become predictors.
type DatasetReaderPort interface {
	ReadDataset(ctx context.Context, outcomeKey core.ColumnKey) (*dataset.Dataset, error)
}
