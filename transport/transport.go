// Package transport abstracts the bidirectional framed-message channel
// beneath the protocol server. Reception is push-based: the transport
// invokes the registered handler once per fully parsed inbound message.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrAlreadyStarted marks a second Start on a running transport.
var ErrAlreadyStarted = errors.New("transport already started")

// ErrClosed marks operations on a stopped transport.
var ErrClosed = errors.New("transport closed")

// Handler consumes one inbound framing unit. raw holds a fully parsed
// JSON document; for a malformed line the handler instead receives a nil
// raw and a *ParseError, and the read loop keeps running.
type Handler func(raw json.RawMessage, parseErr error)

// Transport is the message channel contract.
type Transport interface {
	// Start begins accepting and reading messages. It fails with a
	// *StartError if already started or the underlying stream is
	// unavailable.
	Start() error
	// Stop performs an idempotent shutdown that releases the underlying
	// stream handle, even if a receive is in flight.
	Stop() error
	// Send serializes one message as a single self-delimited unit. It
	// fails with a *WriteError on a closed or broken stream. Concurrent
	// senders are serialized; frames never interleave.
	Send(message any) error
	// SetHandler registers the inbound message handler. Must be called
	// before Start.
	SetHandler(handler Handler)
	// SetCloseHandler registers a listener notified when the peer ends
	// the session (end of stream).
	SetCloseHandler(fn func())
}

// StartError reports a failed transport startup.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("transport start failed: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// WriteError reports a failed send on a closed or broken stream.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("transport write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ParseError reports one malformed inbound line. The read loop is not
// halted; the faulty line is surfaced to the handler instead of being
// silently dropped.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed message line: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
