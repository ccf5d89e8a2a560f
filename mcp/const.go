package mcp

// ProtocolVersion is the MCP protocol revision the server negotiates
// during initialize.
const ProtocolVersion = "2024-11-05"

// Supported request methods.
const (
	MethodInitialize = "initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
	MethodPing       = "ping"
	MethodStop       = "stop"
)

// ContentTypeText is the content variant used for tool results.
const ContentTypeText = "text"
