package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Workflow
		{
			Name: "textmap_import",
			Description: "Import from Gallery: ask the user to pick an existing image, optionally crop or rotate it, " +
				"and recognize the text in it. Returns the outcome (recognized, cancelled, busy, picker_failed, " +
				"recognition_failed) and the resulting screen with its text blocks.",
			InputSchema: noArgs(),
		},
		{
			Name: "textmap_capture",
			Description: "Capture Picture: take a photo with the configured camera command, optionally crop or rotate it, " +
				"and recognize the text in it. Fails with permission_denied when camera access was not granted " +
				"at session start.",
			InputSchema: noArgs(),
		},

		// Screen
		{
			Name: "textmap_view",
			Description: "Show the current screen: the idle placeholder, the loading indicator while text is being " +
				"recognized, or the selected image and its text map (one entry per recognized block, in reading order).",
			InputSchema: noArgs(),
		},
		{
			Name:        "textmap_tap_block",
			Description: "Tap a text block on the text map. Shows the block's full text to the user and returns it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Index of the block in the text map (0-based)",
						"minimum":     0,
					},
				},
				"required": []string{"index"},
			},
		},
		{
			Name: "textmap_overlay",
			Description: "Return the selected image as PNG with every recognized block outlined and numbered " +
				"by its text map index.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 0.5 to halve size). Default 1.0",
						"default":     1.0,
					},
				},
			},
		},

		// OCR
		{
			Name:        "textmap_ocr_info",
			Description: "Report the text recognizer backend, its version and language settings.",
			InputSchema: noArgs(),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
