package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kchlu/stocktake/internal/normalize"
	"github.com/kchlu/stocktake/internal/store"
)

// Report summarizes one ingestion run: how many candidates became
// records and which items failed along the way.
type Report struct {
	Inserted int
	Failures []error
}

// FailureMessages renders the per-item failures for transport payloads.
func (r Report) FailureMessages() []string {
	if len(r.Failures) == 0 {
		return nil
	}
	out := make([]string, len(r.Failures))
	for i, err := range r.Failures {
		out[i] = err.Error()
	}
	return out
}

// Pipeline composes extractors and the script normalizer in front of
// the product store. It never deduplicates: re-ingesting a source
// re-adds every line as a new record.
type Pipeline struct {
	store           store.ProductStore
	extractors      map[SourceKind]Extractor
	normalizer      *normalize.Converter
	normalizeStored bool
	logger          *slog.Logger
}

// NewPipeline creates a pipeline over the given store. When
// normalizeStored is set, candidate names pass through the script
// converter before insertion; otherwise the extracted form is stored
// and conversion happens only at export.
func NewPipeline(st store.ProductStore, conv *normalize.Converter, normalizeStored bool, logger *slog.Logger) *Pipeline {
	if conv == nil {
		conv = normalize.Identity()
	}
	return &Pipeline{
		store:           st,
		extractors:      make(map[SourceKind]Extractor),
		normalizer:      conv,
		normalizeStored: normalizeStored,
		logger:          logger.With("component", "ingest"),
	}
}

// Register wires an extractor for a source kind.
func (p *Pipeline) Register(kind SourceKind, ext Extractor) {
	p.extractors[kind] = ext
}

// DefaultExtractors returns the standard extractor set. The OCR client
// may be nil, in which case image ingestion is not registered.
func DefaultExtractors(ocr OCRClient, maxImageDimension int) map[SourceKind]Extractor {
	m := map[SourceKind]Extractor{
		KindText:        TextExtractor{},
		KindSpreadsheet: SpreadsheetExtractor{},
		KindPDF:         PDFExtractor{},
	}
	if ocr != nil {
		m[KindImage] = ImageExtractor{OCR: ocr, MaxDimension: maxImageDimension}
	}
	return m
}

// Ingest extracts candidate names from one document and inserts each
// non-blank candidate as a new product with zero quantities and empty
// notes. Per-item failures accumulate in the report while the batch
// continues; a document that cannot be processed at all (schema or
// extraction failure) returns the error with nothing inserted.
func (p *Pipeline) Ingest(ctx context.Context, kind SourceKind, payload []byte) (Report, error) {
	ext, ok := p.extractors[kind]
	if !ok {
		return Report{}, fmt.Errorf("unsupported source kind %q", kind)
	}

	candidates, itemErrs, err := ext.Extract(ctx, payload)
	if err != nil {
		return Report{}, err
	}

	report := Report{Failures: itemErrs}
	for _, candidate := range candidates {
		name := strings.TrimSpace(candidate)
		if name == "" {
			continue
		}
		if p.normalizeStored {
			name = p.normalizer.Convert(name)
		}
		if _, err := p.store.Insert(ctx, name, 0, 0, ""); err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("insert %q: %w", name, err))
			continue
		}
		report.Inserted++
	}

	p.logger.InfoContext(ctx, "Ingestion completed",
		"kind", string(kind),
		"inserted", report.Inserted,
		"failed", len(report.Failures),
	)
	return report, nil
}
