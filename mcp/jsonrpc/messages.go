package jsonrpc

import "encoding/json"

// Version is the protocol version string carried by every message.
const Version = "2.0"

// Request represents a JSON-RPC request. A request without an ID is a
// notification and must never receive a response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no correlation id.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response represents a JSON-RPC response. Exactly one of Result or Error
// is set.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// NewResponse creates a success response echoing the request id.
func NewResponse(id any, result any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response echoing the request id.
func NewErrorResponse(id any, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
