package fsops

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/llmtoolhub/toolhub-mcp-go/runner"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
)

// ModifyFileTool modifies an existing file by replacing, inserting, or
// deleting lines within a 1-indexed range. Because line numbers shift
// after a modification, the result carries a synchronized content window
// with the new numbering around the changed area.
type ModifyFileTool struct {
	root   *Root
	schema *types.Schema
}

// NewModifyFileTool creates a modify tool confined to root.
func NewModifyFileTool(root *Root) *ModifyFileTool {
	schema := types.NewSchema().
		Add("file_path", types.Param{
			Type:        types.TypeString,
			Description: "The relative path to the EXISTING file to be modified. Example: 'src/main.go'",
			Required:    true,
		}).
		Add("start_line", types.Param{
			Type:        types.TypeInteger,
			Description: "The 1-indexed line number where the modification should begin.",
			Minimum:     types.Float(1),
			Required:    true,
		}).
		Add("end_line", types.Param{
			Type: types.TypeInteger,
			Description: "The 1-indexed line number where the modification should end (inclusive). " +
				"Set equal to start_line for single-line replacement. " +
				"If end_line < start_line, the tool inserts before start_line.",
			Minimum:  types.Float(0),
			Required: true,
		}).
		Add("new_content", types.Param{
			Type: types.TypeString,
			Description: "The new content for the specified range. " +
				"Use an empty string to delete the range.",
			Default: "",
		})
	return &ModifyFileTool{root: root, schema: schema}
}

func (t *ModifyFileTool) Name() string { return "modify_file" }

func (t *ModifyFileTool) Description() string {
	return "**[SINGLE FILE OPERATION]** Modifies an EXISTING file by replacing, inserting, or " +
		"deleting content within a specified 1-indexed line range. The result includes a " +
		"SYNCHRONIZED CONTENT WINDOW with the new, correct line numbers for the modified area; " +
		"use those numbers for any subsequent modification of the same file."
}

func (t *ModifyFileTool) Schema() *types.Schema { return t.schema }

func (t *ModifyFileTool) Invoke(ctx context.Context, args map[string]any) (*runner.Result, error) {
	filePath, _ := args["file_path"].(string)
	startLine := intArg(args, "start_line", 1)
	endLine := intArg(args, "end_line", 0)
	newContent, _ := args["new_content"].(string)

	target, err := t.root.resolveExisting(filePath)
	if err != nil {
		return toolFailure(fmt.Sprintf("tool execution failed for %q: %v", filePath, err)), nil
	}
	if startLine < 1 || endLine < 0 {
		return toolFailure("start_line must be >= 1 and end_line must be >= 0"), nil
	}

	original, err := readLines(target)
	if err != nil {
		return toolFailure(fmt.Sprintf("could not read file %q: %v", filePath, err)), nil
	}
	totalLines := len(original)

	if startLine > totalLines+1 {
		return toolFailure(fmt.Sprintf(
			"cannot modify lines: requested start_line (%d) is beyond the file's current end (%d)",
			startLine, totalLines)), nil
	}

	var newLines []string
	if newContent != "" {
		newLines = strings.Split(strings.TrimSuffix(newContent, "\n"), "\n")
	}

	var modified []string
	var operation string

	if endLine < startLine {
		// Insertion before start_line.
		insertAt := startLine - 1
		modified = append(modified, original[:insertAt]...)
		modified = append(modified, newLines...)
		modified = append(modified, original[insertAt:]...)
		operation = fmt.Sprintf("inserted %d lines before line %d", len(newLines), startLine)
	} else {
		startIdx := startLine - 1
		endIdx := endLine
		if endIdx > totalLines {
			endIdx = totalLines
		}
		removed := endIdx - startIdx
		if removed < 0 {
			removed = 0
		}

		modified = append(modified, original[:startIdx]...)
		modified = append(modified, newLines...)
		if endIdx < totalLines {
			modified = append(modified, original[endIdx:]...)
		}

		if len(newLines) == 0 {
			operation = fmt.Sprintf("deleted %d lines (lines %d-%d)", removed, startLine, startLine+removed-1)
		} else {
			operation = fmt.Sprintf("replaced %d lines (lines %d-%d) with %d new lines",
				removed, startLine, startLine+removed-1, len(newLines))
		}
	}

	if err := os.WriteFile(target, []byte(strings.Join(modified, "\n")), 0644); err != nil {
		return toolFailure(fmt.Sprintf("could not write file %q: %v", filePath, err)), nil
	}

	window := t.syncWindow(modified, startLine, len(newLines))
	return runner.Success(fmt.Sprintf(
		"SUCCESS: File %q successfully modified. Operation: %s.\n%s",
		filePath, operation, window)), nil
}

// syncWindow renders the modified region plus surrounding context with
// post-modification line numbers.
func (t *ModifyFileTool) syncWindow(lines []string, startLine, newLineCount int) string {
	total := len(lines)
	if total == 0 {
		return "File is now empty."
	}

	from := startLine - contextWindowSize
	if from < 1 {
		from = 1
	}
	to := startLine + newLineCount + contextWindowSize - 1
	if to > total {
		to = total
	}

	numbered := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		numbered = append(numbered, formatLine(i, lines[i-1]))
	}

	return fmt.Sprintf("Synchronized content window (lines %d-%d of %d):\n%s\n%s\n%s",
		from, to, total, contentDivider, strings.Join(numbered, "\n"), contentDivider)
}
