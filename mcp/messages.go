package mcp

// Tool represents a tool catalog entry as exposed to clients.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema represents the JSON schema for tool input. Properties and
// Required mirror the tool's declared parameter options.
type InputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// ServerInfo identifies the server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientInfo identifies the client in the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// InitializeParams is the client descriptor sent with initialize.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion,omitempty"`
	ClientInfo      ClientInfo     `json:"clientInfo,omitempty"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
}

// InitializeResult is the capability/version handshake payload.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// ListToolsResult is the tools/list payload.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams is the tools/call parameter shape.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Content is one element of a tool result payload.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the tools/call payload. IsError marks results whose
// underlying execution did not succeed; execution faults are data, not
// protocol errors.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextResult wraps a plain string as a tool call result.
func TextResult(text string) *CallToolResult {
	return &CallToolResult{
		Content: []Content{{Type: ContentTypeText, Text: text}},
	}
}
