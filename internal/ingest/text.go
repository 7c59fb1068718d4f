package ingest

import "context"

// TextExtractor handles line-delimited plain text: each non-blank
// trimmed line is one candidate.
type TextExtractor struct{}

var _ Extractor = TextExtractor{}

func (TextExtractor) Extract(_ context.Context, payload []byte) ([]string, []error, error) {
	return splitLines(string(payload)), nil, nil
}
