package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
)

// contrastBoost is the relative contrast change applied by Preprocess.
const contrastBoost = 0.4

// Preprocess converts img to grayscale, boosts its contrast and returns it
// PNG-encoded, ready for gosseract's SetImageFromBytes.
func Preprocess(img image.Image) ([]byte, error) {
	gray := effect.Grayscale(img)
	return encodePNG(adjust.Contrast(gray, contrastBoost))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
