package jsonrpc

import "github.com/cockroachdb/errors"

type ErrorCode int

// JSON-RPC 2.0 error codes.
const (
	// Standard JSON-RPC 2.0 error codes
	ErrParseError     ErrorCode = -32700 // Invalid JSON was received by the server
	ErrInvalidRequest ErrorCode = -32600 // The JSON sent is not a valid Request object
	ErrMethodNotFound ErrorCode = -32601 // The method does not exist / is not available
	ErrInvalidParams  ErrorCode = -32602 // Invalid method parameter(s)
	ErrInternalError  ErrorCode = -32603 // Internal JSON-RPC error

	// Implementation-defined server error codes (-32000 to -32099)
	ErrServerError    ErrorCode = -32000
	ErrToolNotFound   ErrorCode = -32001
	ErrNotInitialized ErrorCode = -32002
	ErrShuttingDown   ErrorCode = -32003
)

// Error is the JSON-RPC error object carried in an error response.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// NewError creates a new JSON-RPC error.
func NewError(code ErrorCode, message string, data any) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// IsParseError checks if the error is a parse error.
func IsParseError(err error) bool {
	return IsError(err, ErrParseError)
}

// IsMethodNotFound checks if the error is a method not found error.
func IsMethodNotFound(err error) bool {
	return IsError(err, ErrMethodNotFound)
}

// IsInvalidParams checks if the error is an invalid params error.
func IsInvalidParams(err error) bool {
	return IsError(err, ErrInvalidParams)
}

// IsInternalError checks if the error is an internal error.
func IsInternalError(err error) bool {
	return IsError(err, ErrInternalError)
}

// IsError checks if the error is a JSON-RPC error with the given code.
func IsError(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
