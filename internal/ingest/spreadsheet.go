package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/xuri/excelize/v2"
)

// SpreadsheetExtractor reads candidate names from the first sheet of an
// xlsx workbook. A header cell matching "name" (case-insensitive)
// designates the column and the header row is skipped; without a header
// match the first column is used and every row is data. Rows whose name
// cell is empty are dropped.
type SpreadsheetExtractor struct{}

var _ Extractor = SpreadsheetExtractor{}

func (SpreadsheetExtractor) Extract(_ context.Context, payload []byte) ([]string, []error, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unreadable workbook: %v", cerrors.ErrExtraction, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", cerrors.ErrSchema)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read rows: %v", cerrors.ErrExtraction, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: sheet %q is empty", cerrors.ErrSchema, sheet)
	}

	nameCol, dataStart := findNameColumn(rows)
	if nameCol < 0 {
		return nil, nil, fmt.Errorf("%w: sheet %q", cerrors.ErrSchema, sheet)
	}

	var candidates []string
	for _, row := range rows[dataStart:] {
		if nameCol >= len(row) {
			continue
		}
		// GetRows stringifies non-text cells, so numeric names come
		// through as their formatted values.
		cell := strings.TrimSpace(row[nameCol])
		if cell == "" {
			continue
		}
		candidates = append(candidates, cell)
	}
	return candidates, nil, nil
}

// findNameColumn locates the name-bearing column. It prefers an
// explicit "name" header; otherwise it falls back to the first column,
// provided that column carries at least one non-empty cell. Returns -1
// when no usable column exists.
func findNameColumn(rows [][]string) (col, dataStart int) {
	for j, cell := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(cell), "name") {
			return j, 1
		}
	}
	for _, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
			return 0, 0
		}
	}
	return -1, 0
}
