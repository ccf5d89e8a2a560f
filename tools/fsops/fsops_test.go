package fsops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/llmtoolhub/toolhub-mcp-go/runner"
)

func newTestRoot(t *testing.T) *Root {
	t.Helper()
	root, err := NewRoot(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	return root
}

func writeTestFile(t *testing.T, root *Root, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root.Path(), name), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func readTestFile(t *testing.T, root *Root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root.Path(), name))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	return string(data)
}

func invoke(t *testing.T, tool interface {
	Invoke(ctx context.Context, args map[string]any) (*runner.Result, error)
}, args map[string]any) *runner.Result {
	t.Helper()
	result, err := tool.Invoke(context.Background(), args)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	return result
}

func TestRootRejectsTraversal(t *testing.T) {
	root := newTestRoot(t)
	if _, err := root.resolve("../outside.txt"); err == nil {
		t.Error("Expected traversal outside the root to be rejected")
	}
	if _, err := root.resolve("sub/../inside.txt"); err != nil {
		t.Errorf("Expected in-root path to resolve, got %v", err)
	}
}

func TestRootUnsafeModeAllowsTraversal(t *testing.T) {
	unsafe, err := NewRoot(t.TempDir(), true)
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	if _, err := unsafe.resolve("../outside.txt"); err != nil {
		t.Errorf("Expected unsafe mode to skip the traversal check, got %v", err)
	}
}

func TestRootRejectsMissingDirectory(t *testing.T) {
	if _, err := NewRoot("/nonexistent/root/for/test", false); err == nil {
		t.Error("Expected missing root directory to be rejected")
	}
}

func TestReadFile(t *testing.T) {
	root := newTestRoot(t)
	writeTestFile(t, root, "poem.txt", "line one\nline two\nline three\n")

	result := invoke(t, NewReadFileTool(root), map[string]any{"file_path": "poem.txt"})
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}
	for _, want := range []string{"1:line one", "2:line two", "3:line three", "lines 1-3"} {
		if !strings.Contains(result.Stdout, want) {
			t.Errorf("Expected %q in output:\n%s", want, result.Stdout)
		}
	}
}

func TestReadFileChunk(t *testing.T) {
	root := newTestRoot(t)
	writeTestFile(t, root, "poem.txt", "a\nb\nc\nd\ne\n")

	result := invoke(t, NewReadFileTool(root), map[string]any{
		"file_path":  "poem.txt",
		"start_line": float64(2),
		"end_line":   float64(4),
	})
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "2:b") || !strings.Contains(result.Stdout, "3:c") {
		t.Errorf("Expected lines 2-3, got:\n%s", result.Stdout)
	}
	if strings.Contains(result.Stdout, "4:d") {
		t.Errorf("end_line is exclusive; line 4 must not appear:\n%s", result.Stdout)
	}
}

func TestReadFileMissing(t *testing.T) {
	root := newTestRoot(t)
	result := invoke(t, NewReadFileTool(root), map[string]any{"file_path": "absent.txt"})
	if result.Succeeded() {
		t.Fatal("Expected failure for missing file")
	}
	if !strings.Contains(result.Stderr, "file not found") {
		t.Errorf("Expected not-found message, got %q", result.Stderr)
	}
}

func TestReadFileStartBeyondEnd(t *testing.T) {
	root := newTestRoot(t)
	writeTestFile(t, root, "short.txt", "only\n")

	result := invoke(t, NewReadFileTool(root), map[string]any{
		"file_path":  "short.txt",
		"start_line": float64(10),
	})
	if result.Succeeded() {
		t.Fatal("Expected failure when start_line is past the end")
	}
	if !strings.Contains(result.Stderr, "greater than the total lines") {
		t.Errorf("Unexpected message: %q", result.Stderr)
	}
}

func TestCreateFile(t *testing.T) {
	root := newTestRoot(t)
	result := invoke(t, NewCreateFileTool(root), map[string]any{
		"file_path": "notes.txt",
		"content":   "first\nsecond\n",
	})
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}
	if got := readTestFile(t, root, "notes.txt"); got != "first\nsecond\n" {
		t.Errorf("Unexpected file content: %q", got)
	}
	if !strings.Contains(result.Stdout, "1:first") {
		t.Errorf("Expected numbered content in result:\n%s", result.Stdout)
	}
}

func TestCreateFileRefusesOverwrite(t *testing.T) {
	root := newTestRoot(t)
	writeTestFile(t, root, "existing.txt", "original")

	result := invoke(t, NewCreateFileTool(root), map[string]any{
		"file_path": "existing.txt",
		"content":   "replacement",
	})
	if result.Succeeded() {
		t.Fatal("Expected overwrite to be refused")
	}
	if !strings.Contains(result.Stderr, "Cannot overwrite") {
		t.Errorf("Unexpected message: %q", result.Stderr)
	}
	if got := readTestFile(t, root, "existing.txt"); got != "original" {
		t.Errorf("Existing file must be untouched, got %q", got)
	}
}

func TestCreateFileWithoutReturnContent(t *testing.T) {
	root := newTestRoot(t)
	result := invoke(t, NewCreateFileTool(root), map[string]any{
		"file_path":      "quiet.txt",
		"content":        "data",
		"return_content": false,
	})
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s", result.Status)
	}
	if strings.Contains(result.Stdout, "1:data") {
		t.Errorf("Expected content omitted, got:\n%s", result.Stdout)
	}
}

func TestModifyFileReplace(t *testing.T) {
	root := newTestRoot(t)
	writeTestFile(t, root, "code.txt", "a\nb\nc\nd")

	result := invoke(t, NewModifyFileTool(root), map[string]any{
		"file_path":   "code.txt",
		"start_line":  float64(2),
		"end_line":    float64(3),
		"new_content": "B\nC",
	})
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}
	if got := readTestFile(t, root, "code.txt"); got != "a\nB\nC\nd" {
		t.Errorf("Unexpected content after replace: %q", got)
	}
	if !strings.Contains(result.Stdout, "Synchronized content window") {
		t.Errorf("Expected synchronization window:\n%s", result.Stdout)
	}
}

func TestModifyFileInsert(t *testing.T) {
	root := newTestRoot(t)
	writeTestFile(t, root, "code.txt", "a\nc")

	// end_line < start_line means insert before start_line.
	result := invoke(t, NewModifyFileTool(root), map[string]any{
		"file_path":   "code.txt",
		"start_line":  float64(2),
		"end_line":    float64(0),
		"new_content": "b",
	})
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}
	if got := readTestFile(t, root, "code.txt"); got != "a\nb\nc" {
		t.Errorf("Unexpected content after insert: %q", got)
	}
}

func TestModifyFileDelete(t *testing.T) {
	root := newTestRoot(t)
	writeTestFile(t, root, "code.txt", "a\nb\nc")

	result := invoke(t, NewModifyFileTool(root), map[string]any{
		"file_path":   "code.txt",
		"start_line":  float64(2),
		"end_line":    float64(2),
		"new_content": "",
	})
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}
	if got := readTestFile(t, root, "code.txt"); got != "a\nc" {
		t.Errorf("Unexpected content after delete: %q", got)
	}
	if !strings.Contains(result.Stdout, "deleted 1 lines") {
		t.Errorf("Expected delete operation description:\n%s", result.Stdout)
	}
}

func TestModifyFileBeyondEnd(t *testing.T) {
	root := newTestRoot(t)
	writeTestFile(t, root, "code.txt", "a")

	result := invoke(t, NewModifyFileTool(root), map[string]any{
		"file_path":   "code.txt",
		"start_line":  float64(5),
		"end_line":    float64(5),
		"new_content": "x",
	})
	if result.Succeeded() {
		t.Fatal("Expected failure for start_line beyond the file end")
	}
	if !strings.Contains(result.Stderr, "beyond the file's current end") {
		t.Errorf("Unexpected message: %q", result.Stderr)
	}
}

func TestFormatLineTruncatesOversizedLines(t *testing.T) {
	long := strings.Repeat("x", maxLineChars+10)
	formatted := formatLine(3, long)
	if !strings.HasPrefix(formatted, "3:") {
		t.Errorf("Expected numbered prefix, got %q", formatted[:20])
	}
	if !strings.Contains(formatted, "line was truncated") {
		t.Error("Expected truncation warning for oversized line")
	}
}
