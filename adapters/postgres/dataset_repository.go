// Package postgres loads datasets from database tables, acting as the
// dataset-provider collaborator for deployments that keep development data
// in Postgres.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"evpi/domain/core"
	"evpi/domain/dataset"
	"evpi/internal"
	apperrors "evpi/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DatasetRepository implements ports.DatasetRepository over sqlx
type DatasetRepository struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// NewDatasetRepository creates a repository over an open connection
func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db, logger: internal.Component("DatasetRepository")}
}

// Connect opens a Postgres connection and verifies it
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect to postgres")
	}
	return db, nil
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// LoadTable reads every numeric column of the table; the named column
// becomes the binary outcome and the rest become predictors
func (r *DatasetRepository) LoadTable(ctx context.Context, table string, outcomeKey core.ColumnKey) (*dataset.Dataset, error) {
	if !identPattern.MatchString(table) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid table name %q", table))
	}

	rows, err := r.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return nil, apperrors.Wrap(err, fmt.Sprintf("failed to read table %s", table))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read column names")
	}

	outcomeIdx := -1
	for i, c := range cols {
		if strings.EqualFold(c, outcomeKey.String()) {
			outcomeIdx = i
			break
		}
	}
	if outcomeIdx < 0 {
		return nil, apperrors.DatasetError(fmt.Sprintf("outcome column %q not found in table %s", outcomeKey, table))
	}

	var data [][]float64
	var outcomes []float64
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, apperrors.Wrap(err, "row scan failed")
		}

		row := make([]float64, 0, len(cols)-1)
		var outcome float64
		for i, raw := range values {
			v, ok := toFloat(raw)
			if !ok {
				return nil, apperrors.DatasetError(fmt.Sprintf("column %q has a non-numeric value", cols[i]))
			}
			if i == outcomeIdx {
				outcome = v
			} else {
				row = append(row, v)
			}
		}
		data = append(data, row)
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "row iteration failed")
	}

	columns := make([]dataset.ColumnMeta, 0, len(cols)-1)
	for i, c := range cols {
		if i == outcomeIdx {
			continue
		}
		columns = append(columns, dataset.ColumnMeta{
			Key:             core.ColumnKey(c),
			StatisticalType: dataset.TypeNumeric,
		})
	}

	ds := dataset.New(data, outcomes, columns, outcomeKey)
	ds.Source = "postgres"
	if err := ds.Validate(); err != nil {
		return nil, apperrors.DatasetError(err.Error())
	}

	r.logger.Info("loaded %d rows, %d predictors from table %s", len(data), len(columns), table)
	return ds, nil
}

// ListTables enumerates public tables available to load
func (r *DatasetRepository) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := r.db.SelectContext(ctx, &tables,
		`SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = 'public' ORDER BY tablename`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tables")
	}
	return tables, nil
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case []byte:
		var f float64
		if _, err := fmt.Sscanf(string(v), "%g", &f); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
