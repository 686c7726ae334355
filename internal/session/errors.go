package session

import "errors"

var (
	// ErrPermissionDenied is returned by CaptureFromCamera when the session
	// has no camera permission.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrUserCancelled is returned when the user dismissed a picker, the
	// camera or the edit step. Pickers may also return it directly.
	ErrUserCancelled = errors.New("cancelled by user")

	// ErrRecognitionFailed wraps any error raised by the recognizer.
	ErrRecognitionFailed = errors.New("text recognition failed")

	// ErrPickerFailed wraps errors from the gallery or camera other than a
	// cancellation.
	ErrPickerFailed = errors.New("image selection failed")

	// ErrBusy is returned when a selection is requested while another flow
	// is still in progress.
	ErrBusy = errors.New("another image is still being processed")
)

// User-facing alert text.
const (
	TitlePermissionDenied   = "Camera Permission Denied"
	MessagePermissionDenied = "Please allow camera access to capture an image."

	TitleError               = "Error"
	MessageRecognitionFailed = "Failed to recognize text in the image."
	MessagePickerFailed      = "Could not open the selected image."
)
