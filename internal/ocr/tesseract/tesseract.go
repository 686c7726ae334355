package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/textmap-mcp/internal/imaging"
	"github.com/ironsheep/textmap-mcp/internal/ocr"
)

// Recognizer recognizes text with the Tesseract engine. It implements
// ocr.Recognizer.
//
// A new gosseract client is created per call, so a Recognizer value is safe
// for concurrent use.
type Recognizer struct {
	// Language is a Tesseract language code; "+" joins several ("eng+deu").
	Language string

	// TessdataPrefix, when non-empty, overrides the traineddata directory.
	TessdataPrefix string

	// Preprocess enables grayscale and contrast preprocessing.
	Preprocess bool

	// MinConfidence drops words whose confidence (0.0 to 1.0) is lower.
	MinConfidence float64
}

// New returns a recognizer for language with default settings.
func New(language string) *Recognizer {
	if language == "" {
		language = "eng"
	}
	return &Recognizer{Language: language}
}

// Recognize runs Tesseract on an image file and groups the words it finds
// into blocks.
//
// Parameters:
//   - ctx: Checked before work starts. A recognition in progress is not
//     interrupted.
//   - ref: Filesystem path or file:// URI of a PNG, JPEG, GIF, TIFF or BMP image.
//
// Returns:
//   - *ocr.Result: Blocks in Tesseract's reading order, each with its lines
//     and words. Empty when the image has no text.
//   - error: Non-nil if the image cannot be decoded, the language data is
//     missing, or Tesseract fails.
//
// # Orientation
//
// The image is decoded with its EXIF orientation applied, the same way
// imaging.Open and imaging.ImageCache decode it, and handed to Tesseract as
// PNG bytes. Tesseract therefore reads the text upright, and every Bounds in
// the result is in the pixel space of the oriented image, which is the
// space overlays are drawn in. This holds whether or not Preprocess is set.
//
// # Confidence
//
// Tesseract scores words from 0 to 100; the result carries them scaled to
// 0.0-1.0. Words under MinConfidence are dropped before grouping, and a
// block's confidence is the mean of its remaining words.
//
// # Performance
//
// OCR is CPU-intensive and a phone photo can take several seconds. Callers
// that must stay responsive should run Recognize off their request path.
func (r *Recognizer) Recognize(ctx context.Context, ref string) (*ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := r.pageImage(ref)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := r.configure(client); err != nil {
		return nil, err
	}
	if err := client.SetImageFromBytes(page); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	words, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	return &ocr.Result{Blocks: assembleBlocks(words, r.MinConfidence)}, nil
}

// pageImage decodes ref upright and returns the PNG bytes Tesseract reads.
func (r *Recognizer) pageImage(ref string) ([]byte, error) {
	img, err := imaging.Open(ref)
	if err != nil {
		return nil, err
	}
	if r.Preprocess {
		return Preprocess(img)
	}
	return encodePNG(img)
}

func (r *Recognizer) configure(client *gosseract.Client) error {
	if r.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.TessdataPrefix); err != nil {
			return fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(splitLanguages(r.Language)...); err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	return nil
}

func splitLanguages(language string) []string {
	var langs []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		return []string{"eng"}
	}
	return langs
}

// Info reports the installed Tesseract version and the recognizer settings.
func (r *Recognizer) Info() ocr.Info {
	info := ocr.Info{
		Backend:        "gosseract",
		Language:       r.Language,
		TessdataPrefix: r.TessdataPrefix,
		Preprocess:     r.Preprocess,
	}

	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	if version == "" {
		info.Error = "tesseract did not report a version"
		return info
	}
	info.Available = true
	info.Version = version
	return info
}
