package imaging

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Region is a rectangle in pixel coordinates; (X1,Y1) inclusive, (X2,Y2) exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// EditSpec describes the user's edit of a selected image.
type EditSpec struct {
	// Crop, when set, keeps only this region of the original image.
	Crop *Region

	// Rotate turns the image clockwise by 0, 90, 180 or 270 degrees,
	// after cropping.
	Rotate int
}

// IsZero reports whether the spec leaves the image unchanged.
func (e EditSpec) IsZero() bool {
	return e.Crop == nil && e.Rotate%360 == 0
}

// ApplyEdit crops and rotates img according to spec.
//
// Parameters:
//   - img: The decoded source image, upright per its EXIF orientation.
//   - spec: The edit. Crop coordinates are in img's pixel space; Rotate is
//     applied clockwise after the crop.
//
// Returns:
//   - image.Image: The edited image. img itself when spec is zero.
//   - error: Non-nil if the crop region is empty or extends past img's
//     bounds, or if Rotate is not a multiple of 90.
//
// # Order
//
// Cropping happens first, so a crop of (0,0)-(100,50) followed by a 90
// degree rotation yields a 50x100 image.
func ApplyEdit(img image.Image, spec EditSpec) (image.Image, error) {
	out := img

	if spec.Crop != nil {
		r := *spec.Crop
		bounds := img.Bounds()
		if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
			return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
		}
		out = imaging.Crop(out, image.Rect(r.X1, r.Y1, r.X2, r.Y2))
	}

	// disintegration/imaging rotates counter-clockwise
	switch ((spec.Rotate % 360) + 360) % 360 {
	case 0:
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	default:
		return nil, fmt.Errorf("rotation must be a multiple of 90 degrees, got %d", spec.Rotate)
	}

	return out, nil
}

// JPEGQuality maps a 0.0-1.0 quality factor to a JPEG quality level (1-100).
func JPEGQuality(quality float64) int {
	if quality <= 0 || quality > 1 {
		return 100
	}
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	return q
}

// SaveFullQuality writes img to a new file in dir and returns its path.
//
// Parameters:
//   - img: The image to save.
//   - dir: Destination directory, created if missing.
//   - prefix: File name prefix. The name is prefix, a dash, a random suffix
//     and the extension, so repeated saves never collide.
//   - like: Path of the source image. Its extension picks the container.
//   - quality: JPEG quality factor from 0.0 to 1.0. Out-of-range values
//     mean full quality. Ignored for PNG output.
//
// Returns:
//   - string: Path of the new file.
//   - error: Non-nil if the directory or file cannot be created or the
//     image cannot be encoded. No partial file is left behind.
//
// # Format
//
// JPEG sources are re-encoded as JPEG; every other format is written as
// lossless PNG. No EXIF data is written, which is consistent because img is
// already upright.
//
// # Cleanup
//
// The caller owns the file. The session removes superseded captures and
// edits from the work directory; see source.RemoveWorkFile.
func SaveFullQuality(img image.Image, dir, prefix, like string, quality float64) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	ext := ".png"
	switch strings.ToLower(filepath.Ext(like)) {
	case ".jpg", ".jpeg":
		ext = ".jpg"
	}

	f, err := os.CreateTemp(dir, prefix+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	path := f.Name()
	f.Close()

	if err := imaging.Save(img, path, imaging.JPEGQuality(JPEGQuality(quality))); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return path, nil
}
