package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ironsheep/textmap-mcp/internal/imaging"
	"github.com/ironsheep/textmap-mcp/internal/ocr"
	"github.com/ironsheep/textmap-mcp/internal/render"
	"github.com/ironsheep/textmap-mcp/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "textmap_import").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the MCP result of a tools/call request.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ToolContent is one content item of a tool result.
type ToolContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Outcomes of the capture and import flows.
const (
	OutcomeRecognized        = "recognized"
	OutcomeCancelled         = "cancelled"
	OutcomeBusy              = "busy"
	OutcomePermissionDenied  = "permission_denied"
	OutcomePickerFailed      = "picker_failed"
	OutcomeRecognitionFailed = "recognition_failed"
	OutcomeFailed            = "failed"
)

// FlowResult reports how a capture or import ended, with the screen it left.
type FlowResult struct {
	Outcome string            `json:"outcome"`
	Error   string            `json:"error,omitempty"`
	Screen  render.ScreenView `json:"screen"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// Handlers return either a value, which is wrapped as JSON text content, or
// a *ToolResult, which is sent as is:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A capture or import that ends in a user-visible failure is not a protocol
// error: it returns a FlowResult with isError set.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debug("tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	tr, ok := result.(*ToolResult)
	if !ok {
		tr = textResult(result, false)
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  tr,
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "textmap_import":
		return s.handleImport(ctx)
	case "textmap_capture":
		return s.handleCapture(ctx)
	case "textmap_view":
		return s.handleView(ctx)
	case "textmap_tap_block":
		return s.handleTapBlock(ctx, args)
	case "textmap_overlay":
		return s.handleOverlay(ctx, args)
	case "textmap_ocr_info":
		return s.handleOCRInfo()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func textResult(v interface{}, isError bool) *ToolResult {
	return &ToolResult{
		Content: []ToolContent{{Type: "text", Text: mustMarshalJSON(v)}},
		IsError: isError,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Workflow Handlers ===

func (s *Server) handleImport(ctx context.Context) (interface{}, error) {
	ctrl := s.controller(ctx)
	return s.flowResult(ctrl, ctrl.ImportFromGallery(ctx)), nil
}

func (s *Server) handleCapture(ctx context.Context) (interface{}, error) {
	ctrl := s.controller(ctx)
	return s.flowResult(ctrl, ctrl.CaptureFromCamera(ctx)), nil
}

func (s *Server) flowResult(ctrl *session.Controller, err error) *ToolResult {
	outcome, isError := outcomeOf(err)
	r := FlowResult{
		Outcome: outcome,
		Screen:  render.Screen(ctrl.State(), s),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return textResult(r, isError)
}

// outcomeOf classifies a flow error. A cancel is an ordinary outcome, not
// a failure.
func outcomeOf(err error) (string, bool) {
	switch {
	case err == nil:
		return OutcomeRecognized, false
	case errors.Is(err, session.ErrUserCancelled):
		return OutcomeCancelled, false
	case errors.Is(err, session.ErrBusy):
		return OutcomeBusy, true
	case errors.Is(err, session.ErrPermissionDenied):
		return OutcomePermissionDenied, true
	case errors.Is(err, session.ErrPickerFailed):
		return OutcomePickerFailed, true
	case errors.Is(err, session.ErrRecognitionFailed):
		return OutcomeRecognitionFailed, true
	default:
		return OutcomeFailed, true
	}
}

// === Screen Handlers ===

type viewResult struct {
	render.ScreenView
	Image *imaging.ImageInfo `json:"image,omitempty"`
}

func (s *Server) handleView(ctx context.Context) (interface{}, error) {
	state := s.controller(ctx).State()
	v := viewResult{ScreenView: render.Screen(state, s)}

	if state.ImageRef != "" {
		info, err := imaging.LoadImageInfo(s.cache, state.ImageRef)
		if err != nil {
			s.log.Warn("failed to load %s: %v", state.ImageRef, err)
		} else {
			v.Image = info
		}
	}
	return v, nil
}

type tapBlockArgs struct {
	Index *int `json:"index"`
}

type tapBlockResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func (s *Server) handleTapBlock(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tapBlockArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Index == nil {
		return nil, errors.New("index is required")
	}

	state := s.controller(ctx).State()
	if state.Phase() != session.PhaseResultReady {
		return nil, fmt.Errorf("no recognized text to tap (screen is %s)", state.Phase())
	}

	el, err := render.TextMap(state.Blocks(), s).Element(*a.Index)
	if err != nil {
		return nil, err
	}
	if err := el.Activate(ctx); err != nil {
		return nil, fmt.Errorf("failed to show block: %w", err)
	}
	return tapBlockResult{Index: el.Index, Text: el.Text}, nil
}

type overlayArgs struct {
	Scale float64 `json:"scale"`
}

type overlayResult struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BoxCount int    `json:"box_count"`
	ImageRef string `json:"image_ref"`
}

func (s *Server) handleOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	state := s.controller(ctx).State()
	if state.ImageRef == "" {
		return nil, errors.New("no image selected")
	}
	img, err := s.cache.Load(state.ImageRef)
	if err != nil {
		return nil, err
	}

	blocks := state.Blocks()
	boxes := make([]imaging.Box, len(blocks))
	for i, b := range blocks {
		boxes[i] = imaging.Box{
			Bounds: imaging.Region{X1: b.Bounds.X1, Y1: b.Bounds.Y1, X2: b.Bounds.X2, Y2: b.Bounds.Y2},
			Label:  strconv.Itoa(i),
		}
	}

	ov, err := imaging.Overlay(img, boxes, a.Scale)
	if err != nil {
		return nil, err
	}

	meta := overlayResult{
		Width:    ov.Width,
		Height:   ov.Height,
		BoxCount: ov.BoxCount,
		ImageRef: state.ImageRef,
	}
	return &ToolResult{Content: []ToolContent{
		{Type: "image", Data: ov.ImageBase64, MimeType: ov.MimeType},
		{Type: "text", Text: mustMarshalJSON(meta)},
	}}, nil
}

// === OCR Handlers ===

// infoReporter is implemented by recognizers that can describe themselves.
type infoReporter interface {
	Info() ocr.Info
}

func (s *Server) handleOCRInfo() (interface{}, error) {
	if r, ok := s.recognizer.(infoReporter); ok {
		return r.Info(), nil
	}
	return ocr.Info{
		Available: true,
		Backend:   fmt.Sprintf("%T", s.recognizer),
		Language:  s.cfg.Language,
	}, nil
}
