package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/textmap-mcp/internal/imaging"
	"github.com/ironsheep/textmap-mcp/internal/logger"
	"github.com/ironsheep/textmap-mcp/internal/session"
)

// ErrNotImage is returned when the chosen file is not a decodable image.
var ErrNotImage = errors.New("selected file is not an image")

// GalleryPrompt is the picker's question.
const GalleryPrompt = "Import from Gallery: enter the path of the image to scan."

// Gallery lets the user pick an existing image file.
type Gallery struct {
	Elicitor Elicitor

	// Editor runs the edit step when the caller allows editing; nil skips it.
	Editor *Editor
	Logger *logger.Logger
}

// PickImage implements session.Picker.
func (g *Gallery) PickImage(ctx context.Context, opts session.PickOptions) (session.Selection, error) {
	res, err := g.Elicitor.Elicit(ctx, GalleryPrompt, objectSchema(map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"title":       "Image path",
			"description": "Absolute path or file:// URI of a PNG, JPEG, GIF, TIFF or BMP image",
		},
	}, "path"))
	if err != nil {
		return session.Selection{}, err
	}
	if !res.Accepted() {
		return session.Selection{Cancelled: true}, nil
	}

	raw := stringField(res.Content, "path")
	if raw == "" {
		return session.Selection{Cancelled: true}, nil
	}
	path, err := filepath.Abs(imaging.PathFromRef(raw))
	if err != nil {
		return session.Selection{}, fmt.Errorf("invalid path %q: %w", raw, err)
	}

	if opts.MediaType == session.MediaImages {
		if _, err := imaging.CheckImage(path); err != nil {
			return session.Selection{}, fmt.Errorf("%w: %s: %v", ErrNotImage, path, err)
		}
	}

	g.Logger.Debug("gallery picked %s", path)
	return finishSelection(ctx, g.Editor, path, opts.AllowsEditing, opts.Quality)
}

// finishSelection runs the optional edit step shared by the gallery and the
// camera.
func finishSelection(ctx context.Context, editor *Editor, path string, allowsEditing bool, quality float64) (session.Selection, error) {
	if !allowsEditing || editor == nil {
		return session.Selection{Ref: path}, nil
	}
	edited, cancelled, err := editor.Edit(ctx, path, quality)
	if err != nil {
		return session.Selection{}, err
	}
	if cancelled {
		return session.Selection{Cancelled: true}, nil
	}
	return session.Selection{Ref: edited}, nil
}
