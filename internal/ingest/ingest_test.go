package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_KindFromFilename(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		expected SourceKind
		wantErr  bool
	}{
		{name: "plain text", filename: "list.txt", expected: KindText},
		{name: "xlsx workbook", filename: "Inventory.XLSX", expected: KindSpreadsheet},
		{name: "macro workbook", filename: "inventory.xlsm", expected: KindSpreadsheet},
		{name: "pdf document", filename: "scan.pdf", expected: KindPDF},
		{name: "png image", filename: "shelf.png", expected: KindImage},
		{name: "jpeg image", filename: "shelf.jpeg", expected: KindImage},
		{name: "tiff image", filename: "shelf.tif", expected: KindImage},
		{name: "unknown extension", filename: "notes.docx", wantErr: true},
		{name: "no extension", filename: "README", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := KindFromFilename(tc.filename)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, kind)
		})
	}
}

func Test_TextExtractor(t *testing.T) {
	testCases := []struct {
		name     string
		payload  string
		expected []string
	}{
		{
			name:     "Lines trimmed, blanks dropped",
			payload:  "Apple\n  Pear  \n\n\tGrape\n",
			expected: []string{"Apple", "Pear", "Grape"},
		},
		{
			name:     "Windows line endings",
			payload:  "one\r\ntwo\r\n",
			expected: []string{"one", "two"},
		},
		{
			name:     "Whitespace-only document",
			payload:  "  \n\t\n",
			expected: nil,
		},
		{
			name:     "Empty document",
			payload:  "",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			candidates, itemErrs, err := TextExtractor{}.Extract(context.Background(), []byte(tc.payload))
			require.NoError(t, err)
			assert.Empty(t, itemErrs)
			assert.Equal(t, tc.expected, candidates)
		})
	}
}
