// Package excel reads tabular datasets from .xlsx and .csv files into the
// domain dataset used by the simulation engine.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"evpi/domain/core"
	"evpi/domain/dataset"
	"evpi/internal"
	apperrors "evpi/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV dataset files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.Component("DataReader")}
}

// ReadDataset loads the file into a dataset. The named column becomes the
// binary outcome; every other column that parses as numeric on all rows
// becomes a predictor, the rest are dropped with a warning.
func (r *DataReader) ReadDataset(ctx context.Context, outcomeKey core.ColumnKey) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, apperrors.DatasetError(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	var records [][]string
	var err error
	switch r.fileType {
	case "csv":
		records, err = r.readCSVRows()
	case "xlsx":
		records, err = r.readExcelRows()
	default:
		return nil, apperrors.DatasetError(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}

	return r.buildDataset(records, outcomeKey)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, apperrors.DatasetError(fmt.Sprintf("failed to open Excel file: %v", err))
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.DatasetError(fmt.Sprintf("failed to read sheet %s: %v", sheet, err))
	}
	r.logger.Debug("read %d rows from sheet %s", len(rows), sheet)
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, apperrors.DatasetError(fmt.Sprintf("failed to open CSV file: %v", err))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.DatasetError(fmt.Sprintf("failed to parse CSV: %v", err))
	}
	return records, nil
}

func (r *DataReader) buildDataset(records [][]string, outcomeKey core.ColumnKey) (*dataset.Dataset, error) {
	if len(records) < 2 {
		return nil, apperrors.DatasetError("file must have a header row and at least one data row")
	}

	headers := records[0]
	dataRows := records[1:]

	outcomeIdx := -1
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), outcomeKey.String()) {
			outcomeIdx = i
			break
		}
	}
	if outcomeIdx < 0 {
		return nil, apperrors.DatasetError(fmt.Sprintf("outcome column %q not found in header", outcomeKey))
	}

	// A predictor column must parse as numeric on every row; anything else
	// (free text, ids) is dropped.
	numeric := make([]bool, len(headers))
	for i := range headers {
		if i == outcomeIdx {
			continue
		}
		numeric[i] = true
		for _, row := range dataRows {
			if _, err := cellFloat(row, i); err != nil {
				numeric[i] = false
				break
			}
		}
		if !numeric[i] {
			r.logger.Warn("dropping non-numeric column %q", headers[i])
		}
	}

	var columns []dataset.ColumnMeta
	var keepIdx []int
	for i, h := range headers {
		if i == outcomeIdx || !numeric[i] {
			continue
		}
		keepIdx = append(keepIdx, i)
		columns = append(columns, dataset.ColumnMeta{
			Key:             core.ColumnKey(strings.TrimSpace(h)),
			StatisticalType: dataset.TypeNumeric,
		})
	}
	if len(columns) == 0 {
		return nil, apperrors.DatasetError("no numeric predictor columns found")
	}

	rows := make([][]float64, len(dataRows))
	outcomes := make([]float64, len(dataRows))
	for ri, record := range dataRows {
		y, err := cellFloat(record, outcomeIdx)
		if err != nil {
			return nil, apperrors.DatasetError(fmt.Sprintf("outcome at data row %d is not numeric: %v", ri+1, err))
		}
		if y != 0 && y != 1 {
			return nil, apperrors.DatasetError(fmt.Sprintf("outcome at data row %d is %v, must be 0 or 1", ri+1, y))
		}
		outcomes[ri] = y

		row := make([]float64, len(keepIdx))
		for ci, idx := range keepIdx {
			v, err := cellFloat(record, idx)
			if err != nil {
				return nil, apperrors.DatasetError(fmt.Sprintf("value at data row %d column %q is not numeric", ri+1, headers[idx]))
			}
			row[ci] = v
		}
		rows[ri] = row
	}

	ds := dataset.New(rows, outcomes, columns, outcomeKey)
	ds.Source = r.fileType
	if err := ds.Validate(); err != nil {
		return nil, apperrors.DatasetError(err.Error())
	}

	r.logger.Info("loaded %d rows, %d predictors from %s", len(rows), len(columns), r.filePath)
	return ds, nil
}

// cellFloat reads a cell by index, tolerating short rows (Excel truncates
// trailing empties)
func cellFloat(record []string, idx int) (float64, error) {
	if idx >= len(record) {
		return 0, fmt.Errorf("missing value")
	}
	s := strings.TrimSpace(record[idx])
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}
