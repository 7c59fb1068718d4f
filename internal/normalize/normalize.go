// Package normalize provides optional script conversion for extracted
// and exported text, backed by OpenCC conversion tables.
package normalize

import (
	"log/slog"

	"github.com/liuzl/gocc"
)

// Converter maps text through a script conversion such as simplified to
// traditional Chinese. The zero value is the identity converter.
type Converter struct {
	cc *gocc.OpenCC
}

// Identity returns a converter that leaves text unchanged.
func Identity() *Converter {
	return &Converter{}
}

// New builds a converter for the named conversion (e.g. "s2t"). An
// empty name yields the identity converter. A conversion table that
// fails to load also falls back to identity, with a warning, so a
// missing dictionary never blocks ingestion or export.
func New(conversion string, logger *slog.Logger) *Converter {
	if conversion == "" {
		return Identity()
	}
	cc, err := gocc.New(conversion)
	if err != nil {
		logger.Warn("script conversion unavailable, using identity",
			"conversion", conversion, "error", err)
		return Identity()
	}
	return &Converter{cc: cc}
}

// Convert maps text through the conversion table. It is pure and total:
// with no table, or on a conversion error, the input is returned as is.
func (c *Converter) Convert(text string) string {
	if c == nil || c.cc == nil || text == "" {
		return text
	}
	converted, err := c.cc.Convert(text)
	if err != nil {
		return text
	}
	return converted
}
