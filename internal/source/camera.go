package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/textmap-mcp/internal/config"
	"github.com/ironsheep/textmap-mcp/internal/logger"
	"github.com/ironsheep/textmap-mcp/internal/session"
)

// Camera takes pictures by running an external capture command.
type Camera struct {
	// Command is the capture argv; arguments containing {output} have it
	// replaced with the destination path.
	Command []string
	WorkDir string
	Timeout time.Duration

	Editor *Editor
	Logger *logger.Logger
}

// CaptureImage implements session.Camera.
func (c *Camera) CaptureImage(ctx context.Context, opts session.CaptureOptions) (session.Selection, error) {
	if len(c.Command) == 0 {
		return session.Selection{}, errors.New("no capture command configured")
	}
	if err := os.MkdirAll(c.WorkDir, 0755); err != nil {
		return session.Selection{}, fmt.Errorf("failed to create work dir: %w", err)
	}

	output := filepath.Join(c.WorkDir, fmt.Sprintf("%s%d.jpg", capturePrefix, time.Now().UnixNano()))
	args := make([]string, len(c.Command))
	for i, a := range c.Command {
		args[i] = strings.ReplaceAll(a, config.OutputPlaceholder, output)
	}

	cctx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	c.Logger.Debug("capturing: %s", strings.Join(args, " "))
	out, err := exec.CommandContext(cctx, args[0], args[1:]...).CombinedOutput()
	if err != nil || ctx.Err() != nil {
		RemoveWorkFile(c.WorkDir, output, c.Logger)
	}
	switch {
	case ctx.Err() != nil:
		return session.Selection{}, fmt.Errorf("%w: %v", session.ErrUserCancelled, ctx.Err())
	case errors.Is(cctx.Err(), context.DeadlineExceeded):
		return session.Selection{}, fmt.Errorf("capture timed out after %s", c.Timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.Logger.Info("capture command exited with %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(out)))
			return session.Selection{Cancelled: true}, nil
		}
		return session.Selection{}, fmt.Errorf("failed to run capture command: %w", err)
	}

	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		c.Logger.Info("capture command produced no image")
		RemoveWorkFile(c.WorkDir, output, c.Logger)
		return session.Selection{Cancelled: true}, nil
	}

	sel, err := finishSelection(ctx, c.Editor, output, opts.AllowsEditing, opts.Quality)
	if err != nil || sel.Cancelled || sel.Ref != output {
		// The capture was dropped or replaced by its edited copy.
		RemoveWorkFile(c.WorkDir, output, c.Logger)
	}
	return sel, err
}
