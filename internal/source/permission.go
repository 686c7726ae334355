package source

import (
	"context"
	"os/exec"
)

// CameraPermissionPrompt is the question asked at session start.
const CameraPermissionPrompt = "Allow Text Recognition App to use the camera?"

// CameraPermission asks the user for camera access. Access is denied without
// asking when no capture command is configured or it cannot be found.
type CameraPermission struct {
	Elicitor Elicitor
	Command  []string

	// LookPath resolves the capture executable; exec.LookPath when nil.
	LookPath func(file string) (string, error)
}

// RequestCameraPermission implements session.PermissionService.
func (p *CameraPermission) RequestCameraPermission(ctx context.Context) (bool, error) {
	if len(p.Command) == 0 {
		return false, nil
	}
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(p.Command[0]); err != nil {
		return false, nil
	}

	res, err := p.Elicitor.Elicit(ctx, CameraPermissionPrompt, objectSchema(map[string]interface{}{
		"allow": map[string]interface{}{
			"type":        "boolean",
			"title":       "Allow camera",
			"description": "Let the app take pictures with " + p.Command[0],
			"default":     true,
		},
	}))
	if err != nil {
		return false, err
	}
	if !res.Accepted() {
		return false, nil
	}
	if allow, ok := boolField(res.Content, "allow"); ok {
		return allow, nil
	}
	return true, nil
}
