// Package shell exposes bounded shell-command execution as a tool. It is
// the canonical instance of the execution contract: timeout, forced
// termination, partial capture, and truncation all apply.
package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/llmtoolhub/toolhub-mcp-go/runner"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
)

// ToolName is the registered name of the shell tool.
const ToolName = "shell_tool"

// Options configures the shell tool.
type Options struct {
	// RootPath is the working directory for spawned commands. Defaults
	// to the current working directory.
	RootPath string
	// DefaultTimeout overrides the contract default for calls that omit
	// the timeout argument.
	DefaultTimeout time.Duration
	// MaxOutput is the per-stream truncation cap in characters.
	MaxOutput int
}

// Tool executes shell commands from a fixed root directory.
type Tool struct {
	rootPath       string
	defaultTimeout time.Duration
	maxOutput      int
	schema         *types.Schema
}

// New creates a shell tool rooted at opts.RootPath.
func New(opts Options) (*Tool, error) {
	root := opts.RootPath
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "resolve working directory")
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve root path")
	}
	if stat, err := os.Stat(root); err != nil || !stat.IsDir() {
		return nil, errors.Newf("root path must be a valid directory: %s", root)
	}

	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = runner.DefaultTimeout
	}
	maxOutput := opts.MaxOutput
	if maxOutput <= 0 {
		maxOutput = runner.DefaultMaxOutput
	}

	defaultSeconds := int(timeout / time.Second)
	schema := types.NewSchema().
		Add("command", types.Param{
			Type:        types.TypeString,
			Description: "The full shell command string to execute. Example: 'ls -aF src/'",
			Required:    true,
		}).
		Add("timeout", types.Param{
			Type: types.TypeInteger,
			Description: fmt.Sprintf(
				"Optional: max time in seconds to wait for the command to complete. Defaults to %d.",
				defaultSeconds),
			Default: defaultSeconds,
			Minimum: types.Float(1),
		})

	return &Tool{
		rootPath:       root,
		defaultTimeout: timeout,
		maxOutput:      maxOutput,
		schema:         schema,
	}, nil
}

func (t *Tool) Name() string { return ToolName }

func (t *Tool) Description() string {
	return fmt.Sprintf(
		"**[DANGEROUS: OS INTERACTION]** Executes a shell command (e.g., 'ls -l', 'git status') "+
			"and returns stdout, stderr, and the exit code in a structured format. "+
			"The command runs from the configured root directory. "+
			"For long-running commands, raise the 'timeout' parameter (e.g., timeout=300 for 5 minutes). "+
			"Default timeout is %d seconds. Output is truncated to %d characters per stream for safety.",
		int(t.defaultTimeout/time.Second), t.maxOutput)
}

func (t *Tool) Schema() *types.Schema { return t.schema }

// Invoke runs the command under the bounded execution contract. All
// outcomes, including timeouts and fatal faults, come back as a Result.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (*runner.Result, error) {
	command, _ := args["command"].(string)

	timeout := t.defaultTimeout
	if raw, ok := args["timeout"]; ok {
		if seconds, ok := asSeconds(raw); ok {
			timeout = seconds
		}
	}

	result := runner.RunShell(ctx, command, runner.Options{
		Timeout:   timeout,
		MaxOutput: t.maxOutput,
		Dir:       t.rootPath,
	})
	return result, nil
}

func asSeconds(value any) (time.Duration, bool) {
	switch v := value.(type) {
	case float64:
		return time.Duration(v) * time.Second, true
	case int:
		return time.Duration(v) * time.Second, true
	case int64:
		return time.Duration(v) * time.Second, true
	default:
		return 0, false
	}
}
