package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ironsheep/textmap-mcp/internal/logger"
	"github.com/ironsheep/textmap-mcp/internal/ocr"
)

// Deps are the controller's collaborators.
type Deps struct {
	Gallery    Picker
	Camera     Camera
	Recognizer ocr.Recognizer
	Notifier   Notifier
	Logger     *logger.Logger

	// Releaser, when set, is told about each image a new selection replaces.
	Releaser Releaser
}

// Controller runs the selection and recognition workflow for one session.
// It is safe for concurrent use.
type Controller struct {
	deps Deps

	mu    sync.Mutex
	state State
	busy  bool
}

// New returns a controller in the Idle state with the given camera
// permission.
func New(deps Deps, cameraPermission bool) *Controller {
	return &Controller{
		deps:  deps,
		state: State{CameraPermission: cameraPermission},
	}
}

// Start asks perm for camera access once and returns a controller built
// with the outcome. A nil service or a failed request counts as denied.
func Start(ctx context.Context, perm PermissionService, deps Deps) *Controller {
	granted := false
	if perm != nil {
		g, err := perm.RequestCameraPermission(ctx)
		if err != nil {
			deps.Logger.Warn("camera permission request failed: %v", err)
		} else {
			granted = g
		}
	}
	deps.Logger.Info("session started (camera permission: %t)", granted)
	return New(deps, granted)
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ImportFromGallery lets the user pick an image and recognizes text in it.
func (c *Controller) ImportFromGallery(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if c.deps.Gallery == nil {
		return c.selectionFailed(ctx, "gallery", errors.New("no gallery configured"))
	}

	sel, err := c.deps.Gallery.PickImage(ctx, PickOptions{
		MediaType:     MediaImages,
		AllowsEditing: true,
		Quality:       1,
	})
	return c.handleSelection(ctx, "gallery", sel, err)
}

// CaptureFromCamera lets the user take a picture and recognizes text in it.
// Without camera permission it alerts the user and returns
// ErrPermissionDenied without touching the camera.
func (c *Controller) CaptureFromCamera(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if !c.State().CameraPermission {
		c.notify(ctx, TitlePermissionDenied, MessagePermissionDenied)
		return ErrPermissionDenied
	}

	if c.deps.Camera == nil {
		return c.selectionFailed(ctx, "camera", errors.New("no camera configured"))
	}

	sel, err := c.deps.Camera.CaptureImage(ctx, CaptureOptions{
		AllowsEditing: true,
		Quality:       1,
	})
	return c.handleSelection(ctx, "camera", sel, err)
}

func (c *Controller) handleSelection(ctx context.Context, source string, sel Selection, err error) error {
	if errors.Is(err, ErrUserCancelled) || (err == nil && sel.Cancelled) {
		c.deps.Logger.Debug("%s selection cancelled", source)
		return ErrUserCancelled
	}
	if err != nil {
		return c.selectionFailed(ctx, source, err)
	}
	if sel.Ref == "" {
		return c.selectionFailed(ctx, source, errors.New("empty image reference"))
	}

	c.mu.Lock()
	prev := c.state.ImageRef
	c.state.ImageRef = sel.Ref
	c.mu.Unlock()

	if prev != "" && prev != sel.Ref && c.deps.Releaser != nil {
		c.deps.Releaser.Release(prev)
	}

	c.deps.Logger.Info("%s selected %s", source, sel.Ref)
	return c.recognize(ctx, sel.Ref)
}

func (c *Controller) selectionFailed(ctx context.Context, source string, err error) error {
	c.deps.Logger.Error("%s selection failed: %v", source, err)
	c.notify(ctx, TitleError, MessagePickerFailed)
	return fmt.Errorf("%w: %s: %v", ErrPickerFailed, source, err)
}

// recognize runs the recognizer on ref and stores its outcome. It is not
// cancellable: the recognizer gets a context detached from ctx's
// cancellation, and Loading clears only once it returns.
func (c *Controller) recognize(ctx context.Context, ref string) error {
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	c.state.Loading = true
	c.mu.Unlock()

	var (
		result *ocr.Result
		err    error
	)
	if c.deps.Recognizer == nil {
		err = errors.New("no recognizer configured")
	} else {
		result, err = c.deps.Recognizer.Recognize(ctx, ref)
	}
	if err == nil && result == nil {
		result = ocr.Empty()
	}

	c.mu.Lock()
	if err != nil {
		c.state.Result = ocr.Empty()
	} else {
		c.state.Result = result
	}
	c.state.Loading = false
	c.mu.Unlock()

	if err != nil {
		c.deps.Logger.Error("error recognizing text in %s: %v", ref, err)
		c.notify(ctx, TitleError, MessageRecognitionFailed)
		return fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	c.deps.Logger.Info("recognized %d blocks in %s", len(result.Blocks), ref)
	return nil
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// notify shows an alert. A failure to show it is logged, never returned, so
// it cannot mask the error being reported.
func (c *Controller) notify(ctx context.Context, title, message string) {
	if c.deps.Notifier == nil {
		c.deps.Logger.Warn("no notifier for alert %q: %s", title, message)
		return
	}
	if err := c.deps.Notifier.ShowMessage(context.WithoutCancel(ctx), title, message); err != nil {
		c.deps.Logger.Warn("failed to show alert %q: %v", title, err)
	}
}
