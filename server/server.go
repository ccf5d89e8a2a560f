// Package server implements the protocol dispatcher: it owns the
// transport, decodes inbound messages, routes by method, and enforces
// the JSON-RPC 2.0 message-shape invariants and the server lifecycle.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/llmtoolhub/toolhub-mcp-go/audit"
	"github.com/llmtoolhub/toolhub-mcp-go/logger"
	"github.com/llmtoolhub/toolhub-mcp-go/mcp"
	"github.com/llmtoolhub/toolhub-mcp-go/mcp/jsonrpc"
	"github.com/llmtoolhub/toolhub-mcp-go/runner"
	"github.com/llmtoolhub/toolhub-mcp-go/tools"
	"github.com/llmtoolhub/toolhub-mcp-go/transport"
)

// State is the server lifecycle phase.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Recorder receives one record per completed tool invocation.
type Recorder interface {
	Record(ctx context.Context, rec audit.Record) error
}

// Options configures a Server.
type Options struct {
	Name     string
	Version  string
	Recorder Recorder // optional invocation trail
}

// Server routes protocol messages between one Transport and the tool
// registry. Message reading is single-threaded; each request is
// dispatched on its own goroutine and correlated by id only.
type Server struct {
	name      string
	version   string
	sessionID string

	tr       transport.Transport
	registry *tools.Manager
	recorder Recorder

	stateMu sync.RWMutex
	state   State

	inflight sync.WaitGroup
	drain    sync.Once
	stopped  chan struct{}
}

// New creates a protocol server over the given transport and registry.
func New(tr transport.Transport, registry *tools.Manager, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "toolhub"
	}
	if opts.Version == "" {
		opts.Version = "0.0.0"
	}

	s := &Server{
		name:      opts.Name,
		version:   opts.Version,
		sessionID: uuid.NewString(),
		tr:        tr,
		registry:  registry,
		recorder:  opts.Recorder,
		state:     StateUninitialized,
		stopped:   make(chan struct{}),
	}

	tr.SetHandler(s.handleRaw)
	tr.SetCloseHandler(s.Shutdown)
	return s
}

// SessionID returns the id tagging this server session in logs and
// audit records.
func (s *Server) SessionID() string {
	return s.sessionID
}

// State returns the current lifecycle phase.
func (s *Server) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Start begins serving messages from the transport.
func (s *Server) Start() error {
	if err := s.tr.Start(); err != nil {
		return err
	}
	logger.Info("Protocol server started", "session_id", s.sessionID, "tools", s.registry.Len())
	return nil
}

// Run starts the server and blocks until it stops or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		s.Shutdown()
		<-s.stopped
		return ctx.Err()
	case <-s.stopped:
		return nil
	}
}

// Shutdown refuses new requests, drains in-flight calls, then stops the
// transport. It is safe to call from any goroutine, multiple times.
func (s *Server) Shutdown() {
	s.stateMu.Lock()
	if s.state >= StateShuttingDown {
		s.stateMu.Unlock()
		return
	}
	s.state = StateShuttingDown
	s.stateMu.Unlock()

	s.drain.Do(func() {
		go func() {
			logger.Info("Protocol server draining", "session_id", s.sessionID)
			s.inflight.Wait()
			_ = s.tr.Stop()

			s.stateMu.Lock()
			s.state = StateStopped
			s.stateMu.Unlock()

			close(s.stopped)
			logger.Info("Protocol server stopped", "session_id", s.sessionID)
		}()
	})
}

// Stopped is closed once shutdown has fully completed.
func (s *Server) Stopped() <-chan struct{} {
	return s.stopped
}

// handleRaw consumes one transport framing unit. Nothing may escape this
// path as an unhandled fault: every failure terminates in a structured
// error response for requests or a logged drop for notifications.
func (s *Server) handleRaw(raw json.RawMessage, parseErr error) {
	if parseErr != nil {
		logger.Warn("Malformed inbound frame", "error", parseErr)
		s.send(jsonrpc.NewErrorResponse(nil, jsonrpc.ErrParseError, "Parse error", nil))
		return
	}

	var req jsonrpc.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.Warn("Invalid request shape", "error", err)
		s.send(jsonrpc.NewErrorResponse(nil, jsonrpc.ErrInvalidRequest, "Invalid Request", nil))
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		if req.IsNotification() {
			logger.Warn("Dropping notification without method")
			return
		}
		s.send(jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInvalidRequest, "Invalid Request", nil))
		return
	}

	if resp, gated := s.gate(&req); gated {
		if resp != nil && !req.IsNotification() {
			s.send(resp)
		}
		return
	}

	// Fire-and-forget dispatch: multiple invocations may be in flight
	// concurrently, each response tagged with its own id.
	go func() {
		defer s.inflight.Done()
		resp := s.dispatch(&req)
		if req.IsNotification() {
			if resp != nil && resp.Error != nil {
				logger.Warn("Notification failed", "method", req.Method, "error", resp.Error.Message)
			}
			return
		}
		if resp != nil {
			s.send(resp)
		}
	}()
}

// gate applies the lifecycle rules before dispatch: only initialize is
// accepted while uninitialized, and nothing is accepted once shutdown
// begins. An admitted request joins the in-flight count while the state
// lock is still held, so Shutdown either rejects the request here or
// its drain waits for it; the count can never be observed empty between
// the check and the dispatch.
func (s *Server) gate(req *jsonrpc.Request) (*jsonrpc.Response, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	switch {
	case s.state >= StateShuttingDown:
		if req.IsNotification() {
			logger.Debug("Ignoring notification during shutdown", "method", req.Method)
			return nil, true
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrShuttingDown, "server shutting down", nil), true
	case s.state == StateUninitialized && req.Method != mcp.MethodInitialize:
		if req.IsNotification() {
			logger.Warn("Notification before initialize", "method", req.Method)
			return nil, true
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrNotInitialized, "server not initialized", nil), true
	default:
		s.inflight.Add(1)
		return nil, false
	}
}

// dispatch routes one message to its method handler and converts the
// outcome into a response. Panics are caught here so a faulty handler
// can never crash the read loop or wedge the transport.
func (s *Server) dispatch(req *jsonrpc.Request) (resp *jsonrpc.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Dispatch panicked", "method", req.Method, "panic", r)
			resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInternalError, "Internal error", nil)
		}
	}()

	logger.Debug("Dispatching", "method", req.Method, "notification", req.IsNotification())

	switch req.Method {
	case mcp.MethodInitialize:
		return s.handleInitialize(req)
	case mcp.MethodToolsList:
		return s.handleListTools(req)
	case mcp.MethodToolsCall:
		return s.handleCallTool(req)
	case mcp.MethodPing:
		return jsonrpc.NewResponse(req.ID, map[string]any{})
	case mcp.MethodStop:
		// Respond first, then begin shutdown; draining inside this
		// in-flight call would deadlock.
		defer s.Shutdown()
		return jsonrpc.NewResponse(req.ID, map[string]any{})
	default:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

func (s *Server) handleInitialize(req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInvalidParams, "Invalid params", nil)
		}
	}

	s.stateMu.Lock()
	if s.state == StateUninitialized {
		s.state = StateReady
	}
	s.stateMu.Unlock()

	clientName := params.ClientInfo.Name
	if clientName == "" {
		clientName = "unknown"
	}
	logger.Info("Client initialized", "client", clientName, "session_id", s.sessionID)

	return jsonrpc.NewResponse(req.ID, mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo: mcp.ServerInfo{
			Name:    s.name,
			Version: s.version,
		},
	})
}

func (s *Server) handleListTools(req *jsonrpc.Request) *jsonrpc.Response {
	return jsonrpc.NewResponse(req.ID, mcp.ListToolsResult{Tools: s.registry.List()})
}

func (s *Server) handleCallTool(req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInvalidParams, "Invalid params", nil)
	}
	if strings.TrimSpace(params.Name) == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInvalidParams, "Invalid params",
			[]string{`missing required parameter "name"`})
	}

	started := time.Now()
	result, err := s.registry.Execute(context.Background(), params.Name, params.Arguments)
	if err != nil {
		if tools.IsUnknownTool(err) {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrToolNotFound,
				fmt.Sprintf("tool not found: %s", params.Name), nil)
		}
		if validationErr, ok := tools.AsValidationError(err); ok {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInvalidParams, "Invalid params",
				validationErr.Violations)
		}
		logger.Error("Tool call failed unexpectedly", "tool", params.Name, "error", err)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInternalError, "Internal error", nil)
	}

	s.record(params.Name, result, time.Since(started))

	callResult := mcp.TextResult(renderResult(result))
	callResult.IsError = !result.Succeeded()
	return jsonrpc.NewResponse(req.ID, callResult)
}

func (s *Server) record(tool string, result *runner.Result, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(context.Background(), audit.Record{
		SessionID: s.sessionID,
		Tool:      tool,
		Status:    string(result.Status),
		ExitCode:  result.ExitCode,
		Duration:  elapsed,
	})
	if err != nil {
		logger.Warn("Audit record failed", "tool", tool, "error", err)
	}
}

// send serializes one response onto the transport. Send failures are
// diagnostics only; the dispatch loop keeps running.
func (s *Server) send(resp *jsonrpc.Response) {
	if err := s.tr.Send(resp); err != nil {
		var writeErr *transport.WriteError
		if errors.As(err, &writeErr) && errors.Is(writeErr.Err, transport.ErrClosed) {
			logger.Debug("Response dropped, transport closed")
			return
		}
		logger.Error("Response send failed", "error", err)
	}
}

// renderResult flattens an execution result into the text content
// returned to the client. Successful output passes through untouched;
// failures carry the full classification block.
func renderResult(result *runner.Result) string {
	if result.Succeeded() {
		if result.Warning == "" {
			return result.Stdout
		}
		return result.Stdout + "\n\nWARNING: " + result.Warning
	}

	var b strings.Builder
	fmt.Fprintf(&b, "STATUS: %s\n", result.Status)
	fmt.Fprintf(&b, "EXIT_CODE: %d\n", result.ExitCode)
	if result.Warning != "" {
		fmt.Fprintf(&b, "WARNING: %s\n", result.Warning)
	}
	fmt.Fprintf(&b, "--- STDOUT ---\n%s\n", result.Stdout)
	fmt.Fprintf(&b, "--- STDERR ---\n%s", result.Stderr)
	return b.String()
}
