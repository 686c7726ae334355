package render

import (
	"github.com/ironsheep/textmap-mcp/internal/session"
)

// Screen text.
const (
	Header           = "Text Recognition App"
	ImportAction     = "Import from Gallery"
	CaptureAction    = "Capture Picture"
	IdlePlaceholder  = "No image selected. Import or capture an image to start."
	LoadingIndicator = "Recognizing text…"
)

// ScreenView is the whole screen for one session state.
type ScreenView struct {
	Header           string        `json:"header"`
	Actions          []string      `json:"actions"`
	Phase            session.Phase `json:"phase"`
	CameraPermission bool          `json:"camera_permission"`

	// Exactly one of Placeholder, Loading or ImageRef+TextMap is set.
	Placeholder string       `json:"placeholder,omitempty"`
	Loading     string       `json:"loading,omitempty"`
	ImageRef    string       `json:"image_ref,omitempty"`
	TextMap     *TextMapView `json:"text_map,omitempty"`
}

// Screen renders state. While loading it shows only the indicator; once an
// image is selected it shows the image reference and its text map.
func Screen(state session.State, m Messenger) ScreenView {
	v := ScreenView{
		Header:           Header,
		Actions:          []string{ImportAction, CaptureAction},
		Phase:            state.Phase(),
		CameraPermission: state.CameraPermission,
	}

	switch v.Phase {
	case session.PhaseIdle:
		v.Placeholder = IdlePlaceholder
	case session.PhaseRecognizing:
		v.Loading = LoadingIndicator
	default:
		tm := TextMap(state.Blocks(), m)
		v.ImageRef = state.ImageRef
		v.TextMap = &tm
	}
	return v
}
