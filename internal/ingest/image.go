package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/otiai10/gosseract/v2"
)

// DefaultMaxDimension caps either image dimension before recognition.
// Oversized photos destabilize recognition accuracy, so anything larger
// is downscaled first.
const DefaultMaxDimension = 2000

// OCRClient recognizes text in an encoded image. Implementations are
// blocking and synchronous with no retries.
type OCRClient interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TesseractClient runs recognition through a local Tesseract engine.
type TesseractClient struct {
	languages []string
}

var _ OCRClient = (*TesseractClient)(nil)

// NewTesseractClient creates a client tuned for the given language set,
// e.g. "chi_tra", "eng". With no languages the engine default applies.
func NewTesseractClient(languages ...string) *TesseractClient {
	return &TesseractClient{languages: languages}
}

func (c *TesseractClient) Recognize(_ context.Context, image []byte) (string, error) {
	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if len(c.languages) > 0 {
		if err := client.SetLanguage(c.languages...); err != nil {
			return "", fmt.Errorf("failed to set OCR languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image into OCR engine: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR recognition failed: %w", err)
	}
	return text, nil
}

// ImageExtractor recognizes text in a raster image and applies the
// plain-line rule to the result. Before recognition any dimension over
// MaxDimension is downscaled preserving aspect ratio with Lanczos
// resampling.
type ImageExtractor struct {
	OCR          OCRClient
	MaxDimension int
}

var _ Extractor = ImageExtractor{}

func (e ImageExtractor) Extract(ctx context.Context, payload []byte) ([]string, []error, error) {
	maxDim := e.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	img, err := imaging.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unreadable image: %v", cerrors.ErrExtraction, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to re-encode image: %v", cerrors.ErrExtraction, err)
	}

	text, err := e.OCR.Recognize(ctx, buf.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cerrors.ErrExtraction, err)
	}
	return splitLines(text), nil, nil
}
