package ingest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOCR returns a canned recognition result and remembers the image
// it was handed.
type fakeOCR struct {
	text     string
	err      error
	received []byte
}

func (f *fakeOCR) Recognize(_ context.Context, img []byte) (string, error) {
	f.received = img
	return f.text, f.err
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func Test_ImageExtractor_AppliesPlainLineRule(t *testing.T) {
	// given
	ocr := &fakeOCR{text: "Oolong\n  Jasmine  \n\nPu-erh\n"}
	ext := ImageExtractor{OCR: ocr, MaxDimension: 100}

	// when
	candidates, itemErrs, err := ext.Extract(context.Background(), encodePNG(t, 40, 20))

	// then
	require.NoError(t, err)
	assert.Empty(t, itemErrs)
	assert.Equal(t, []string{"Oolong", "Jasmine", "Pu-erh"}, candidates)
}

func Test_ImageExtractor_DownscalesOversizedImages(t *testing.T) {
	// given: 300x100 against a 100px cap
	ocr := &fakeOCR{text: "ok"}
	ext := ImageExtractor{OCR: ocr, MaxDimension: 100}

	// when
	_, _, err := ext.Extract(context.Background(), encodePNG(t, 300, 100))
	require.NoError(t, err)

	// then: the engine sees a fitted image with the aspect ratio kept
	fitted, decodeErr := png.Decode(bytes.NewReader(ocr.received))
	require.NoError(t, decodeErr)
	assert.Equal(t, 100, fitted.Bounds().Dx())
	assert.LessOrEqual(t, fitted.Bounds().Dy(), 34)
}

func Test_ImageExtractor_SmallImagePassedThroughUnscaled(t *testing.T) {
	// given
	ocr := &fakeOCR{text: "ok"}
	ext := ImageExtractor{OCR: ocr, MaxDimension: 100}

	// when
	_, _, err := ext.Extract(context.Background(), encodePNG(t, 50, 30))
	require.NoError(t, err)

	// then
	small, decodeErr := png.Decode(bytes.NewReader(ocr.received))
	require.NoError(t, decodeErr)
	assert.Equal(t, 50, small.Bounds().Dx())
	assert.Equal(t, 30, small.Bounds().Dy())
}

func Test_ImageExtractor_Errors(t *testing.T) {
	t.Run("Unreadable image", func(t *testing.T) {
		ext := ImageExtractor{OCR: &fakeOCR{}}
		_, _, err := ext.Extract(context.Background(), []byte("not an image"))
		assert.ErrorIs(t, err, cerrors.ErrExtraction)
	})

	t.Run("Recognition failure", func(t *testing.T) {
		ext := ImageExtractor{OCR: &fakeOCR{err: errors.New("engine unavailable")}, MaxDimension: 100}
		_, _, err := ext.Extract(context.Background(), encodePNG(t, 10, 10))
		assert.ErrorIs(t, err, cerrors.ErrExtraction)
	})
}
