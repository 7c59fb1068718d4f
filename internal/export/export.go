// Package export renders a catalog snapshot to spreadsheet, CSV, or
// plain structured text. Every format carries the same field sequence:
// name, warehouse quantity, store quantity, computed total, notes.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/kchlu/stocktake/internal/normalize"
	"github.com/kchlu/stocktake/internal/store"
	"github.com/xuri/excelize/v2"
)

// Format selects the output encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

// ParseFormat validates a format string from a request.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatXLSX, FormatCSV, FormatText:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename returns the download filename for the format.
func (f Format) Filename() string {
	return "inventory." + string(f)
}

var header = []string{"name", "warehouse_quantity", "store_quantity", "total", "notes"}

// Exporter renders snapshots, applying script conversion to names and
// notes at render time so the stored form stays untouched.
type Exporter struct {
	normalizer *normalize.Converter
}

// NewExporter creates an exporter with the given script converter. A
// nil converter means no conversion.
func NewExporter(conv *normalize.Converter) *Exporter {
	if conv == nil {
		conv = normalize.Identity()
	}
	return &Exporter{normalizer: conv}
}

// Export renders the snapshot in the requested format.
func (e *Exporter) Export(products []store.Product, format Format) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return e.exportXLSX(products)
	case FormatCSV:
		return e.exportCSV(products)
	case FormatText:
		return e.exportText(products)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

func (e *Exporter) row(p store.Product) []string {
	return []string{
		e.normalizer.Convert(p.Name),
		strconv.FormatInt(p.WarehouseQty, 10),
		strconv.FormatInt(p.StoreQty, 10),
		strconv.FormatInt(p.Total(), 10),
		e.normalizer.Convert(p.Notes),
	}
}

func (e *Exporter) exportXLSX(products []store.Product) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]any{header[0], header[1], header[2], header[3], header[4]}); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		row := []any{
			e.normalizer.Convert(p.Name),
			p.WarehouseQty,
			p.StoreQty,
			p.Total(),
			e.normalizer.Convert(p.Notes),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) exportCSV(products []store.Product) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, p := range products {
		if err := w.Write(e.row(p)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) exportText(products []store.Product) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", header[0], header[1], header[2], header[3], header[4])
	for _, p := range products {
		row := e.row(p)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4])
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush text output: %w", err)
	}
	return buf.Bytes(), nil
}
