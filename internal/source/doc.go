// Package source implements the session's outside-world collaborators on top
// of MCP elicitation: the camera permission prompt, the gallery picker, the
// camera, and the edit step both of them share.
//
// Each prompt is an Elicitor call. The client shows the prompt to its user
// and answers accept, decline or cancel; decline and cancel on a picker or
// the edit step both mean the user backed out, which is reported as a
// cancelled Selection rather than an error.
//
// The camera runs an external still-capture command (for example fswebcam
// or libcamera-still) that writes to a path substituted for the {output}
// placeholder. A capture command that exits non-zero or writes nothing is
// treated as the user closing the camera.
package source
