// Package fsops provides the filesystem tools: safe line-oriented read,
// create, and modify operations confined to a configured root directory.
package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/llmtoolhub/toolhub-mcp-go/logger"
)

// contextWindowSize is the number of surrounding lines included in the
// synchronization window after a modification.
const contextWindowSize = 5

// maxLineChars caps a single returned line.
const maxLineChars = 5000

// Root confines all filesystem tool operations to one directory tree.
type Root struct {
	path       string
	unsafeMode bool
}

// NewRoot creates a confinement root. With unsafeMode set the traversal
// check is skipped and tools may reach the whole filesystem.
func NewRoot(path string, unsafeMode bool) (*Root, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "resolve working directory")
		}
		path = wd
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve root path")
	}
	if stat, err := os.Stat(abs); err != nil || !stat.IsDir() {
		return nil, errors.Newf("root path must be a valid directory: %s", abs)
	}

	if unsafeMode {
		logger.Warn("Filesystem tools initialized in UNSAFE MODE", "root", abs)
	}
	return &Root{path: abs, unsafeMode: unsafeMode}, nil
}

// Path returns the absolute root directory.
func (r *Root) Path() string { return r.path }

// resolve validates filePath against the root: traversal outside the
// root is rejected unless unsafe mode is enabled.
func (r *Root) resolve(filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", errors.New("file path is empty, please check your path configuration")
	}

	target := filePath
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.path, target)
	}
	target = filepath.Clean(target)

	if !r.unsafeMode {
		rel, err := filepath.Rel(r.path, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", errors.Newf("access denied: file path %q must be inside the configured root: %s", filePath, r.path)
		}
	}
	return target, nil
}

// resolveExisting resolves filePath and requires it to name an existing
// regular file.
func (r *Root) resolveExisting(filePath string) (string, error) {
	target, err := r.resolve(filePath)
	if err != nil {
		return "", err
	}
	stat, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf("file not found at path: %s", filePath)
		}
		return "", errors.Wrapf(err, "stat %q", filePath)
	}
	if stat.IsDir() {
		return "", errors.Newf("path is a directory: %s", filePath)
	}
	return target, nil
}

// resolveNew resolves filePath and requires it not to exist yet.
func (r *Root) resolveNew(filePath string) (string, error) {
	target, err := r.resolve(filePath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err == nil {
		return "", errors.Newf("file already exists at path: %s. Cannot overwrite.", filePath)
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "stat %q", filePath)
	}
	return target, nil
}

// readLines loads the file split into lines without trailing newlines.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

// formatLine renders one numbered line, truncating oversized content.
func formatLine(number int, content string) string {
	if len(content) > maxLineChars {
		return fmt.Sprintf("%d:%s [WARNING: line was truncated to %d characters]",
			number, content[:maxLineChars], maxLineChars)
	}
	return fmt.Sprintf("%d:%s", number, content)
}
