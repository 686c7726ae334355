package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/textmap-mcp/internal/imaging"
	"github.com/ironsheep/textmap-mcp/internal/logger"
)

var rotations = []string{"0", "90", "180", "270"}

// Editor is the crop/rotate step offered after an image is chosen.
type Editor struct {
	Elicitor Elicitor
	WorkDir  string
	Logger   *logger.Logger
}

// Edit asks the user how to crop and rotate the image at path. It returns
// the path to recognize, which is path itself when the user leaves the
// image unchanged. cancelled is true when the user backs out.
func (e *Editor) Edit(ctx context.Context, path string, quality float64) (string, bool, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", false, err
	}
	b := img.Bounds()

	msg := fmt.Sprintf("Edit %s (%dx%d). Leave the crop fields empty to keep the whole image.",
		filepath.Base(path), b.Dx(), b.Dy())
	res, err := e.Elicitor.Elicit(ctx, msg, editSchema(b.Dx(), b.Dy()))
	if err != nil {
		return "", false, err
	}
	if !res.Accepted() {
		return "", true, nil
	}

	spec, err := parseEdit(res.Content)
	if err != nil {
		return "", false, err
	}
	if spec.IsZero() {
		return path, false, nil
	}

	edited, err := imaging.ApplyEdit(img, spec)
	if err != nil {
		return "", false, err
	}
	out, err := imaging.SaveFullQuality(edited, e.WorkDir, "edit", path, quality)
	if err != nil {
		return "", false, err
	}
	e.Logger.Debug("edited %s -> %s", path, out)
	return out, false, nil
}

func editSchema(w, h int) map[string]interface{} {
	coord := func(title string, max int) map[string]interface{} {
		return map[string]interface{}{
			"type":    "integer",
			"title":   title,
			"minimum": 0,
			"maximum": max,
		}
	}
	return objectSchema(map[string]interface{}{
		"x1": coord("Crop left", w),
		"y1": coord("Crop top", h),
		"x2": coord("Crop right", w),
		"y2": coord("Crop bottom", h),
		"rotate": map[string]interface{}{
			"type":    "string",
			"title":   "Rotate clockwise (degrees)",
			"enum":    rotations,
			"default": "0",
		},
	})
}

// parseEdit reads the edit form. The crop needs all four coordinates or none.
func parseEdit(content map[string]interface{}) (imaging.EditSpec, error) {
	var spec imaging.EditSpec

	keys := []string{"x1", "y1", "x2", "y2"}
	var vals [4]int
	present := 0
	for i, k := range keys {
		if v, ok := intField(content, k); ok {
			vals[i] = v
			present++
		}
	}
	switch present {
	case 0:
	case 4:
		spec.Crop = &imaging.Region{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}
	default:
		return spec, fmt.Errorf("crop needs x1, y1, x2 and y2; got %d of them", present)
	}

	if r, ok := intField(content, "rotate"); ok {
		spec.Rotate = r
	}
	return spec, nil
}
