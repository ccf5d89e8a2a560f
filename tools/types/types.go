// Package types defines the contract every callable tool implements and
// the parameter-schema dialect the registry translates into the protocol
// catalog format.
package types

import (
	"context"

	"github.com/llmtoolhub/toolhub-mcp-go/runner"
)

// Tool defines the contract for all tools: static descriptor plus the
// bound invocation entry point. Implementations are registered once at
// startup and treated as read-only for the process lifetime.
type Tool interface {
	Name() string
	Description() string
	Schema() *Schema
	// Invoke executes the tool with validated arguments. Execution
	// outcomes, including failures, are carried in the Result; an error
	// return is reserved for faults the tool could not classify.
	Invoke(ctx context.Context, args map[string]any) (*runner.Result, error)
}

// FuncTool adapts a plain function to the Tool interface.
type FuncTool struct {
	name        string
	description string
	schema      *Schema
	fn          func(ctx context.Context, args map[string]any) (*runner.Result, error)
}

// NewFuncTool creates a tool from an invocation function.
func NewFuncTool(name, description string, schema *Schema, fn func(ctx context.Context, args map[string]any) (*runner.Result, error)) *FuncTool {
	if schema == nil {
		schema = NewSchema()
	}
	return &FuncTool{
		name:        name,
		description: description,
		schema:      schema,
		fn:          fn,
	}
}

// NewTextTool creates a tool from a function returning a plain string
// result. A returned error becomes a tool-reported failure.
func NewTextTool(name, description string, schema *Schema, fn func(ctx context.Context, args map[string]any) (string, error)) *FuncTool {
	return NewFuncTool(name, description, schema, func(ctx context.Context, args map[string]any) (*runner.Result, error) {
		text, err := fn(ctx, args)
		if err != nil {
			return &runner.Result{
				Status:   runner.StatusError,
				ExitCode: 1,
				Stderr:   err.Error(),
			}, nil
		}
		return runner.Success(text), nil
	})
}

func (t *FuncTool) Name() string        { return t.name }
func (t *FuncTool) Description() string { return t.description }
func (t *FuncTool) Schema() *Schema     { return t.schema }

func (t *FuncTool) Invoke(ctx context.Context, args map[string]any) (*runner.Result, error) {
	return t.fn(ctx, args)
}
