// Package server implements the MCP (Model Context Protocol) server that hosts
// the text recognition app.
//
// The MCP client plays the phone's UI shell: tool calls are button taps, and
// elicitation prompts stand in for the permission dialog, the gallery picker,
// the crop screen and alert boxes.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0, one message per line.
// Traffic is bidirectional: while a tool call runs, the server may send
// elicitation/create requests to the client and wait for the answers, so
// requests are read on one goroutine and tool calls run on their own.
//
// Supported MCP methods:
//   - initialize: Protocol handshake; records the client's elicitation capability
//   - notifications/initialized: Starts the session (camera permission check)
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Workflow:
//   - textmap_import: Import from Gallery, then recognize
//   - textmap_capture: Capture Picture, then recognize
//
// Screen:
//   - textmap_view: Current screen and text map
//   - textmap_tap_block: Show one block's text
//   - textmap_overlay: Selected image with numbered block outlines
//
// OCR:
//   - textmap_ocr_info: Recognizer backend and version
//
// # Alerts
//
// Alerts are elicitations with no fields, so a tool call that raises one
// returns only after the user dismisses it. Clients without the elicitation
// capability receive a notifications/message log entry instead.
//
// # Error Handling
//
// Protocol and argument errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Import and capture always return a normal tool result. Its outcome field
// is one of recognized, cancelled, busy, permission_denied, picker_failed,
// recognition_failed or failed, and isError is set for all but the first two.
//
// # Usage
//
//	srv := server.New(cfg, log, server.WithVersion(Version))
//	if err := srv.Run(ctx); err != nil {
//	    log.Error("server error: %v", err)
//	}
package server
