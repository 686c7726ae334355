package ocr

import (
	"context"
	"strings"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// Union returns the smallest Bounds containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		X1: minInt(b.X1, o.X1),
		Y1: minInt(b.Y1, o.Y1),
		X2: maxInt(b.X2, o.X2),
		Y2: maxInt(b.Y2, o.Y2),
	}
}

// Width returns X2-X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// TextElement is a single recognized word.
type TextElement struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// TextLine is a run of elements on one baseline.
type TextLine struct {
	Text     string        `json:"text"`
	Bounds   Bounds        `json:"bounds"`
	Elements []TextElement `json:"elements"`
}

// TextBlock is one detected region of text.
//
// Blocks are immutable once returned by a Recognizer; callers must not modify
// the Lines slice.
type TextBlock struct {
	// Text is the block's content, lines separated by "\n".
	Text string `json:"text"`

	// Confidence is the mean word confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Bounds Bounds     `json:"bounds"`
	Lines  []TextLine `json:"lines"`
}

// Result is the outcome of one recognition call.
type Result struct {
	Blocks []TextBlock `json:"blocks"`
}

// Empty returns a Result with no blocks.
func Empty() *Result {
	return &Result{Blocks: []TextBlock{}}
}

// Text returns all block texts joined by blank lines.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	texts := make([]string, len(r.Blocks))
	for i, b := range r.Blocks {
		texts[i] = b.Text
	}
	return strings.Join(texts, "\n\n")
}

// Recognizer detects text in the image identified by ref.
//
// Implementations may take an unbounded amount of time. They should return
// promptly if ctx is already done when called, but are not required to abort
// a recognition that has started.
type Recognizer interface {
	Recognize(ctx context.Context, ref string) (*Result, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, ref string) (*Result, error)

// Recognize calls f(ctx, ref).
func (f RecognizerFunc) Recognize(ctx context.Context, ref string) (*Result, error) {
	return f(ctx, ref)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Info describes a recognition backend.
type Info struct {
	Available      bool   `json:"available"`
	Version        string `json:"version,omitempty"`
	Backend        string `json:"backend"`
	Language       string `json:"language"`
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
	Preprocess     bool   `json:"preprocess"`
	Error          string `json:"error,omitempty"`
}
