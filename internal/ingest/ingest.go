// Package ingest turns uploaded documents into catalog records: one
// extractor per source kind feeding a pipeline that trims, normalizes,
// and inserts candidate names.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// SourceKind identifies the structure of an uploaded document.
type SourceKind string

const (
	KindText        SourceKind = "text"
	KindSpreadsheet SourceKind = "spreadsheet"
	KindPDF         SourceKind = "pdf"
	KindImage       SourceKind = "image"
)

// Extractor turns one document into zero or more raw candidate-name
// strings. Extraction never touches the catalog and is deterministic
// for byte-identical input. Non-fatal per-item failures (for example a
// single unreadable page) come back alongside the candidates; a
// document that cannot be processed at all returns an error.
type Extractor interface {
	Extract(ctx context.Context, payload []byte) (candidates []string, itemErrs []error, err error)
}

// KindFromFilename infers the source kind from a filename extension.
func KindFromFilename(name string) (SourceKind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return KindText, nil
	case ".xlsx", ".xlsm":
		return KindSpreadsheet, nil
	case ".pdf":
		return KindPDF, nil
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		return KindImage, nil
	}
	return "", fmt.Errorf("cannot infer source kind from filename %q", name)
}

// splitLines applies the plain-line rule: split on line breaks, trim
// each line, drop blanks.
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
