package ingest

import (
	"bytes"
	"context"
	"fmt"

	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls text from a paged document in page order, applying
// the plain-line rule per page. A page with no extractable text
// contributes zero candidates; a page that fails outright is recorded
// as a non-fatal item error while the remaining pages continue.
type PDFExtractor struct{}

var _ Extractor = PDFExtractor{}

func (PDFExtractor) Extract(_ context.Context, payload []byte) (candidates []string, itemErrs []error, err error) {
	// The pdf package panics on some malformed documents; treat that
	// the same as a decode failure.
	defer func() {
		if r := recover(); r != nil {
			candidates, itemErrs = nil, nil
			err = fmt.Errorf("%w: malformed document: %v", cerrors.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cerrors.ErrExtraction, err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			itemErrs = append(itemErrs, fmt.Errorf("%w: page %d: %v", cerrors.ErrExtraction, i, pageErr))
			continue
		}
		candidates = append(candidates, splitLines(text)...)
	}
	return candidates, itemErrs, nil
}
