package fsops

import (
	"context"
	"fmt"
	"strings"

	"github.com/llmtoolhub/toolhub-mcp-go/runner"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
)

// ReadFileTool reads a text file with line-based chunking for large
// files. Every returned line is prefixed with its 1-indexed number.
type ReadFileTool struct {
	root   *Root
	schema *types.Schema
}

// NewReadFileTool creates a read tool confined to root.
func NewReadFileTool(root *Root) *ReadFileTool {
	schema := types.NewSchema().
		Add("file_path", types.Param{
			Type:        types.TypeString,
			Description: "The relative path to the target file from the root. Example: 'data/input.txt'",
			Required:    true,
		}).
		Add("start_line", types.Param{
			Type:        types.TypeInteger,
			Description: "The line number to start reading from (1-indexed). Defaults to 1.",
			Default:     1,
			Minimum:     types.Float(1),
		}).
		Add("end_line", types.Param{
			Type:        types.TypeInteger,
			Description: "The line number to stop reading before (exclusive). 0 reads until the end of the file.",
			Default:     0,
		})
	return &ReadFileTool{root: root, schema: schema}
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Reads the content of a text file. Supports line-based reading " +
		"(start_line/end_line) for large files; lines are returned with their 1-indexed numbers."
}

func (t *ReadFileTool) Schema() *types.Schema { return t.schema }

func (t *ReadFileTool) Invoke(ctx context.Context, args map[string]any) (*runner.Result, error) {
	filePath, _ := args["file_path"].(string)
	startLine := intArg(args, "start_line", 1)
	endLine := intArg(args, "end_line", 0)

	target, err := t.root.resolveExisting(filePath)
	if err != nil {
		return toolFailure(fmt.Sprintf("tool execution failed for %q: %v", filePath, err)), nil
	}

	if startLine < 1 {
		startLine = 1
	}
	if endLine != 0 && endLine <= startLine {
		return toolFailure("end_line must be greater than start_line"), nil
	}

	lines, err := readLines(target)
	if err != nil {
		return toolFailure(fmt.Sprintf("could not read file %q: %v", filePath, err)), nil
	}
	totalLines := len(lines)

	if startLine > totalLines && totalLines > 0 {
		return toolFailure(fmt.Sprintf(
			"tool execution failed for %q: requested start_line (%d) is greater than the total lines in file (%d)",
			filePath, startLine, totalLines)), nil
	}

	stop := totalLines
	if endLine != 0 && endLine-1 < stop {
		stop = endLine - 1
	}

	var content []string
	for i := startLine - 1; i < stop; i++ {
		content = append(content, formatLine(i+1, lines[i]))
	}

	if len(content) == 0 {
		return runner.Success(fmt.Sprintf(
			"SUCCESS: Chunk of %q (lines %d-%d) is empty. Total lines in file: %d.",
			filePath, startLine, totalLines, totalLines)), nil
	}

	lastLine := startLine + len(content) - 1
	return runner.Success(fmt.Sprintf(
		"SUCCESS: Chunk of %q (lines %d-%d):\n%s\n%s\n%s",
		filePath, startLine, lastLine, contentDivider, strings.Join(content, "\n"), contentDivider)), nil
}

const contentDivider = "--------------------------------------------------------------------------"

// toolFailure builds a tool-reported failure result.
func toolFailure(message string) *runner.Result {
	return &runner.Result{
		Status:   runner.StatusError,
		ExitCode: 1,
		Stderr:   "ERROR: " + message,
	}
}

// intArg extracts an integer argument, tolerating the float64 shape
// produced by encoding/json.
func intArg(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return fallback
	}
}
