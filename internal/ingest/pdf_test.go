package ingest

import (
	"context"
	"testing"

	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/stretchr/testify/assert"
)

func Test_PDFExtractor_RejectsGarbage(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
	}{
		{name: "Not a document at all", payload: []byte("plain text, no pdf header")},
		{name: "Truncated header", payload: []byte("%PDF-1.7\n")},
		{name: "Empty payload", payload: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			candidates, itemErrs, err := PDFExtractor{}.Extract(context.Background(), tc.payload)

			assert.ErrorIs(t, err, cerrors.ErrExtraction)
			assert.Nil(t, candidates)
			assert.Nil(t, itemErrs)
		})
	}
}
