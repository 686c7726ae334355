package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/ridge/must/v2"
	"golang.org/x/image/font/gofont/goregular"
)

var labelFont = must.OK1(truetype.Parse(goregular.TTF))

// Box is a rectangle to highlight on an overlay.
type Box struct {
	Bounds Region
	Label  string
}

// OverlayResult contains the annotated image.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	BoxCount    int    `json:"box_count"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Overlay draws each box over img as a translucent fill with a solid outline
// and a numbered badge, and returns the result as a base64-encoded PNG.
//
// Parameters:
//   - img: The image to annotate, already decoded with its EXIF orientation
//     applied (as returned by Open or ImageCache.Load).
//   - boxes: Rectangles to highlight, in img's pixel space. Boxes with no
//     area are skipped. An empty Label is replaced by the box's index.
//   - scale: Output scale factor. 1.0 keeps the original size; 0.5 halves it.
//
// Returns:
//   - *OverlayResult: Output dimensions, the number of boxes passed in, and
//     the PNG data with its MIME type.
//   - error: Non-nil if scale is not positive, shrinks the image below one
//     pixel, or the PNG cannot be encoded.
//
// # Colors
//
// Box i is drawn in BlockColor(i), the same palette the text map uses, so a
// block's outline matches its entry in the list.
//
// # Scaling
//
// The image is resized with Lanczos resampling before drawing, and box
// coordinates are scaled with it. Outlines and labels keep a fixed pixel
// size, so they stay legible on reduced output.
func Overlay(img image.Image, boxes []Box, scale float64) (*OverlayResult, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", scale)
	}

	base := img
	if scale != 1.0 {
		w := int(float64(img.Bounds().Dx()) * scale)
		h := int(float64(img.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %g shrinks image to nothing", scale)
		}
		base = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	origin := img.Bounds().Min
	dc := gg.NewContextForImage(base)
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: 12}))

	for i, b := range boxes {
		x := float64(b.Bounds.X1-origin.X) * scale
		y := float64(b.Bounds.Y1-origin.Y) * scale
		w := float64(b.Bounds.X2-b.Bounds.X1) * scale
		h := float64(b.Bounds.Y2-b.Bounds.Y1) * scale
		if w <= 0 || h <= 0 {
			continue
		}
		c := BlockColor(i)

		dc.SetRGBA(c.R, c.G, c.B, BlockFillAlpha)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()

		dc.SetRGBA(c.R, c.G, c.B, 0.9)
		dc.SetLineWidth(2)
		dc.DrawRectangle(x, y, w, h)
		dc.Stroke()

		label := b.Label
		if label == "" {
			label = strconv.Itoa(i)
		}
		tw, th := dc.MeasureString(label)
		dc.SetRGBA(c.R, c.G, c.B, 1)
		dc.DrawRectangle(x, y, tw+6, th+6)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(label, x+3, y+3, 0, 1)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	out := dc.Image().Bounds()
	return &OverlayResult{
		Width:       out.Dx(),
		Height:      out.Dy(),
		BoxCount:    len(boxes),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
