package fsops

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/llmtoolhub/toolhub-mcp-go/runner"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
)

// CreateFileTool creates a new text file. The operation fails if the
// target already exists, preventing accidental overwrites.
type CreateFileTool struct {
	root   *Root
	schema *types.Schema
}

// NewCreateFileTool creates a create tool confined to root.
func NewCreateFileTool(root *Root) *CreateFileTool {
	schema := types.NewSchema().
		Add("file_path", types.Param{
			Type:        types.TypeString,
			Description: "The relative path to the new file from the root. Example: 'data/new_file.txt'",
			Required:    true,
		}).
		Add("content", types.Param{
			Type:        types.TypeString,
			Description: "The content to write into the new file.",
			Required:    true,
		}).
		Add("return_content", types.Param{
			Type:        types.TypeBoolean,
			Description: "If true, returns the written content with line numbers for subsequent modification. Defaults to true.",
			Default:     true,
		})
	return &CreateFileTool{root: root, schema: schema}
}

func (t *CreateFileTool) Name() string { return "create_file" }

func (t *CreateFileTool) Description() string {
	return "Create a NEW file and write the content to it. The operation fails if the " +
		"file already exists. To modify existing files use 'modify_file' instead."
}

func (t *CreateFileTool) Schema() *types.Schema { return t.schema }

func (t *CreateFileTool) Invoke(ctx context.Context, args map[string]any) (*runner.Result, error) {
	filePath, _ := args["file_path"].(string)
	content, _ := args["content"].(string)
	returnContent := true
	if v, ok := args["return_content"].(bool); ok {
		returnContent = v
	}

	target, err := t.root.resolveNew(filePath)
	if err != nil {
		return toolFailure(fmt.Sprintf("tool execution failed for %q: %v", filePath, err)), nil
	}

	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return toolFailure(fmt.Sprintf("could not create file %q: %v", filePath, err)), nil
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	if content == "" {
		lines = nil
	}
	base := fmt.Sprintf("SUCCESS: File %q successfully created with %d lines of initial content.",
		filePath, len(lines))
	if !returnContent {
		return runner.Success(base), nil
	}

	numbered := make([]string, 0, len(lines))
	for i, line := range lines {
		numbered = append(numbered, formatLine(i+1, line))
	}
	return runner.Success(fmt.Sprintf(
		"%s Content with line numbers for subsequent modification:\n%s\n%s\n%s",
		base, contentDivider, strings.Join(numbered, "\n"), contentDivider)), nil
}
