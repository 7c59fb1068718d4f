package normalize

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Identity(t *testing.T) {
	c := Identity()
	assert.Equal(t, "", c.Convert(""))
	assert.Equal(t, "Oolong", c.Convert("Oolong"))
	assert.Equal(t, "乌龙茶", c.Convert("乌龙茶"))
}

func Test_New_EmptyConversionIsIdentity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New("", logger)
	assert.Equal(t, "乌龙茶", c.Convert("乌龙茶"))
}

func Test_New_UnknownConversionFallsBackToIdentity(t *testing.T) {
	// given: a conversion table that cannot be loaded
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// when
	c := New("no-such-conversion", logger)

	// then: text passes through unchanged instead of failing
	assert.Equal(t, "乌龙茶", c.Convert("乌龙茶"))
}

func Test_Convert_NilReceiverIsSafe(t *testing.T) {
	var c *Converter
	assert.Equal(t, "text", c.Convert("text"))
}
