package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ironsheep/textmap-mcp/internal/config"
	"github.com/ironsheep/textmap-mcp/internal/imaging"
	"github.com/ironsheep/textmap-mcp/internal/logger"
	"github.com/ironsheep/textmap-mcp/internal/ocr"
	"github.com/ironsheep/textmap-mcp/internal/ocr/tesseract"
	"github.com/ironsheep/textmap-mcp/internal/session"
	"github.com/ironsheep/textmap-mcp/internal/source"
)

// Protocol versions the server can speak, newest first. Elicitation needs
// 2025-06-18.
var supportedProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// Server handles MCP protocol communication for one client session.
type Server struct {
	cfg     config.Config
	log     *logger.Logger
	version string

	in  io.Reader
	out io.Writer

	cache      *imaging.ImageCache
	recognizer ocr.Recognizer
	permission session.PermissionService
	gallery    session.Picker
	camera     session.Camera

	sendMu sync.Mutex
	enc    *json.Encoder

	mu        sync.Mutex
	canElicit bool
	nextID    int64
	pending   map[string]chan *rpcMessage
	closed    bool

	startOnce sync.Once
	ctrl      *session.Controller

	handlers sync.WaitGroup
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// outgoingRequest is a request sent from the server to the client.
type outgoingRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcMessage is any line read from the client: a request, a notification,
// or a response to one of our requests.
type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *MCPError       `json:"error,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithIO replaces stdin/stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithRecognizer replaces the Tesseract recognizer.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(s *Server) { s.recognizer = r }
}

// WithPermission replaces the elicitation-backed camera permission check.
func WithPermission(p session.PermissionService) Option {
	return func(s *Server) { s.permission = p }
}

// WithGallery replaces the elicitation-backed gallery picker.
func WithGallery(p session.Picker) Option {
	return func(s *Server) { s.gallery = p }
}

// WithCamera replaces the capture-command camera.
func WithCamera(c session.Camera) Option {
	return func(s *Server) { s.camera = c }
}

// NewRecognizer builds the Tesseract recognizer described by cfg.
func NewRecognizer(cfg config.Config) *tesseract.Recognizer {
	t := tesseract.New(cfg.Language)
	t.TessdataPrefix = cfg.TessdataPrefix
	t.Preprocess = cfg.Preprocess
	t.MinConfidence = cfg.MinConfidence
	return t
}

// New creates a new MCP server instance
func New(cfg config.Config, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log,
		version: "dev",
		in:      os.Stdin,
		out:     os.Stdout,
		cache:   imaging.NewImageCache(),
		pending: make(map[string]chan *rpcMessage),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.enc = json.NewEncoder(s.out)

	if s.recognizer == nil {
		s.recognizer = NewRecognizer(cfg)
	}

	editor := &source.Editor{Elicitor: s, WorkDir: cfg.WorkDir, Logger: log}
	if s.permission == nil {
		s.permission = &source.CameraPermission{Elicitor: s, Command: cfg.CaptureCommand}
	}
	if s.gallery == nil {
		s.gallery = &source.Gallery{Elicitor: s, Editor: editor, Logger: log}
	}
	if s.camera == nil {
		s.camera = &source.Camera{
			Command: cfg.CaptureCommand,
			WorkDir: cfg.WorkDir,
			Timeout: cfg.CaptureTimeout,
			Editor:  editor,
			Logger:  log,
		}
	}
	return s
}

// Run serves the session until the input is closed. Tool calls run
// concurrently so that their elicitation round trips can be answered while
// they wait.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		s.closePending()
		cancel()
		s.handlers.Wait()
	}()

	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg rpcMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			s.log.Warn("failed to parse message: %v", err)
			continue
		}
		s.dispatch(ctx, &msg)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

func (s *Server) dispatch(ctx context.Context, msg *rpcMessage) {
	if msg.Method == "" {
		s.resolve(msg)
		return
	}

	if len(msg.ID) == 0 {
		s.handleNotification(ctx, msg.Method)
		return
	}

	req := &MCPRequest{JSONRPC: msg.JSONRPC, Method: msg.Method, Params: msg.Params}
	if err := json.Unmarshal(msg.ID, &req.ID); err != nil {
		s.log.Warn("invalid request id %s: %v", msg.ID, err)
		return
	}

	if req.Method == "tools/call" {
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.reply(s.handleRequest(ctx, req))
		}()
		return
	}
	s.reply(s.handleRequest(ctx, req))
}

func (s *Server) handleNotification(ctx context.Context, method string) {
	switch method {
	case "notifications/initialized":
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.controller(ctx)
		}()
	default:
		s.log.Debug("ignoring notification %s", method)
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	Capabilities    struct {
		Elicitation json.RawMessage `json:"elicitation,omitempty"`
	} `json:"capabilities"`
	ClientInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

// handleInitialize responds to the initialize request and records whether
// the client can answer elicitation requests.
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	var p initializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
	}

	el := p.Capabilities.Elicitation
	canElicit := len(el) > 0 && string(el) != "null"
	s.mu.Lock()
	s.canElicit = canElicit
	s.mu.Unlock()
	s.log.Info("client %s %s connected (elicitation: %t)", p.ClientInfo.Name, p.ClientInfo.Version, canElicit)

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": negotiateVersion(p.ProtocolVersion),
			"capabilities": map[string]interface{}{
				"tools":   map[string]interface{}{},
				"logging": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "textmap-mcp",
				"version": s.version,
			},
		},
	}
}

// negotiateVersion echoes the client's version when supported and offers
// the newest one otherwise.
func negotiateVersion(requested string) string {
	for _, v := range supportedProtocolVersions {
		if v == requested {
			return v
		}
	}
	return supportedProtocolVersions[0]
}

// controller returns the session controller, running session setup on the
// first call. Concurrent callers wait for setup to finish.
func (s *Server) controller(ctx context.Context) *session.Controller {
	s.startOnce.Do(func() {
		s.ctrl = session.Start(ctx, s.permission, session.Deps{
			Gallery:    s.gallery,
			Camera:     s.camera,
			Recognizer: s.recognizer,
			Notifier:   s,
			Logger:     s.log,
			Releaser:   s,
		})
	})
	return s.ctrl
}

// Release implements session.Releaser. It drops a replaced image from the
// cache and deletes it when it is a capture or edit in the work dir.
func (s *Server) Release(ref string) {
	s.cache.Evict(ref)
	source.RemoveWorkFile(s.cfg.WorkDir, ref, s.log)
}

func (s *Server) reply(resp *MCPResponse) {
	if resp == nil {
		return
	}
	if err := s.send(resp); err != nil {
		s.log.Error("failed to encode response: %v", err)
	}
}

func (s *Server) send(v interface{}) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.enc.Encode(v)
}

func (s *Server) notify(method string, params interface{}) error {
	return s.send(MCPNotification{JSONRPC: "2.0", Method: method, Params: params})
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
