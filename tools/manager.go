// Package tools implements the tool registry and adapter: it holds the
// registered tool set, translates declared schemas into the protocol
// dialect, validates arguments, and performs bounded invocation.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/llmtoolhub/toolhub-mcp-go/logger"
	"github.com/llmtoolhub/toolhub-mcp-go/mcp"
	"github.com/llmtoolhub/toolhub-mcp-go/runner"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
)

var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("tool not found")
)

// IsUnknownTool checks whether err marks an unregistered tool name.
func IsUnknownTool(err error) bool {
	return errors.Is(err, ErrUnknownTool)
}

// IsDuplicateTool checks whether err marks a duplicate registration.
func IsDuplicateTool(err error) bool {
	return errors.Is(err, ErrDuplicateTool)
}

// Manager holds the set of registered tools. Registration normally
// happens once at startup; the map is read-only thereafter, but late
// registration stays mutually exclusive with listing and execution.
type Manager struct {
	mu    sync.RWMutex
	tools *orderedmap.OrderedMap[string, types.Tool]
}

// NewManager creates an empty tool registry.
func NewManager() *Manager {
	return &Manager{tools: orderedmap.New[string, types.Tool]()}
}

// Register adds a tool. Names must be unique within the registry.
func (m *Manager) Register(tool types.Tool) error {
	if tool == nil {
		return errors.New("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return errors.New("tool name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tools.Get(name); exists {
		return errors.Wrapf(ErrDuplicateTool, "%q", name)
	}
	m.tools.Set(name, tool)
	logger.Debug("Tool registered", "name", name)
	return nil
}

// Get retrieves a tool by name.
func (m *Manager) Get(name string) (types.Tool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tools.Get(name)
}

// Len returns the number of registered tools.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tools.Len()
}

// List returns the full tool catalog in registration insertion order,
// each schema translated into the protocol dialect.
func (m *Manager) List() []mcp.Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	catalog := make([]mcp.Tool, 0, m.tools.Len())
	for pair := m.tools.Oldest(); pair != nil; pair = pair.Next() {
		tool := pair.Value
		catalog = append(catalog, mcp.Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.Schema().ToInputSchema(),
		})
	}
	return catalog
}

// Execute validates args against the named tool's schema and invokes it
// under the bounded execution contract. Execution outcomes, including
// failures, come back as a Result; the error return is reserved for
// unknown tools and argument validation.
func (m *Manager) Execute(ctx context.Context, name string, args map[string]any) (*runner.Result, error) {
	tool, exists := m.Get(name)
	if !exists {
		return nil, errors.Wrapf(ErrUnknownTool, "%q", name)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := ValidateArgs(name, tool.Schema(), args); err != nil {
		return nil, err
	}

	logger.Debug("Executing tool", "name", name)
	result := m.invoke(ctx, tool, args)

	// A tool must not report SUCCESS alongside a failing exit signal.
	if result.Status == runner.StatusSuccess && result.ExitCode != runner.ExitSuccess {
		result.Status = runner.StatusError
	}
	return result, nil
}

// invoke shields the dispatch path from tool faults: panics and
// unclassified errors are converted into FATAL_ERROR results instead of
// escaping across the component boundary.
func (m *Manager) invoke(ctx context.Context, tool types.Tool, args map[string]any) (result *runner.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Tool invocation panicked", "tool", tool.Name(), "panic", r)
			result = runner.Fatal(fmt.Sprintf("unexpected engine fault: %v", r))
		}
	}()

	result, err := tool.Invoke(ctx, args)
	if err != nil {
		logger.Error("Tool invocation failed", "tool", tool.Name(), "error", err)
		return runner.Fatal(fmt.Sprintf("unexpected execution fault: %v", err))
	}
	if result == nil {
		return runner.Fatal("tool returned no result")
	}
	return result
}
