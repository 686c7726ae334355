package session

import (
	"context"

	"github.com/ironsheep/textmap-mcp/internal/ocr"
)

// Phase is the coarse screen state derived from State.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseRecognizing Phase = "recognizing"
	PhaseResultReady Phase = "result_ready"
)

// State is the screen state of one session.
type State struct {
	// ImageRef is the currently selected image; empty until the first
	// successful selection.
	ImageRef string `json:"image_ref,omitempty"`

	// Loading is true exactly while a recognition request is outstanding.
	Loading bool `json:"loading"`

	CameraPermission bool `json:"camera_permission"`

	// Result is the latest recognition outcome; nil until the first
	// recognition completes. A failed recognition stores an empty result.
	Result *ocr.Result `json:"result,omitempty"`
}

// Phase reports which screen state s is in.
func (s State) Phase() Phase {
	switch {
	case s.ImageRef == "":
		return PhaseIdle
	case s.Loading:
		return PhaseRecognizing
	default:
		return PhaseResultReady
	}
}

// Blocks returns the latest result's blocks, or nil when there is none.
func (s State) Blocks() []ocr.TextBlock {
	if s.Result == nil {
		return nil
	}
	return s.Result.Blocks
}

// MediaType restricts what a gallery picker may return.
type MediaType string

// MediaImages limits the gallery to still images.
const MediaImages MediaType = "images"

// PickOptions are the constraints passed to the gallery picker.
type PickOptions struct {
	MediaType     MediaType
	AllowsEditing bool

	// Quality is the output quality from 0.0 to 1.0; 1.0 is maximum.
	Quality float64
}

// CaptureOptions are the constraints passed to the camera.
type CaptureOptions struct {
	AllowsEditing bool
	Quality       float64
}

// Selection is what a picker or camera returns. Ref is meaningful only when
// Cancelled is false.
type Selection struct {
	Cancelled bool
	Ref       string
}

// PermissionService asks for camera access.
type PermissionService interface {
	RequestCameraPermission(ctx context.Context) (bool, error)
}

// Picker lets the user choose an existing image.
type Picker interface {
	PickImage(ctx context.Context, opts PickOptions) (Selection, error)
}

// Camera lets the user take a new picture.
type Camera interface {
	CaptureImage(ctx context.Context, opts CaptureOptions) (Selection, error)
}

// Notifier shows a message to the user and waits for acknowledgement.
type Notifier interface {
	ShowMessage(ctx context.Context, title, message string) error
}

// Releaser frees resources held for an image that is no longer selected.
type Releaser interface {
	Release(ref string)
}
