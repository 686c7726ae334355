package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/textmap-mcp/internal/imaging"
	"github.com/ironsheep/textmap-mcp/internal/logger"
)

// File name prefixes of the images this package writes to the work dir.
// Edits get theirs from SaveFullQuality's "edit" prefix.
const (
	capturePrefix = "capture-"
	editPrefix    = "edit-"
)

// RemoveWorkFile deletes ref if it names a capture or edit file directly
// inside workDir, and reports whether it did. Anything else, such as an
// image the user picked from the gallery, is left alone.
func RemoveWorkFile(workDir, ref string, log *logger.Logger) bool {
	if !isWorkFile(workDir, ref) {
		return false
	}
	path := imaging.PathFromRef(ref)
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to remove %s: %v", path, err)
		}
		return false
	}
	log.Debug("removed %s", path)
	return true
}

func isWorkFile(workDir, ref string) bool {
	if workDir == "" || ref == "" {
		return false
	}
	dir, err := filepath.Abs(workDir)
	if err != nil {
		return false
	}
	path, err := filepath.Abs(imaging.PathFromRef(ref))
	if err != nil || filepath.Dir(path) != dir {
		return false
	}
	name := filepath.Base(path)
	return strings.HasPrefix(name, capturePrefix) || strings.HasPrefix(name, editPrefix)
}
