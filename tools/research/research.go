// Package research provides the literature search tools: paper search
// via the Semantic Scholar API and open access lookup via the Unpaywall
// API.
package research

import (
	"net/http"
	"time"

	"github.com/llmtoolhub/toolhub-mcp-go/runner"
)

// DefaultMaxFulltextChars caps retrieved full text.
const DefaultMaxFulltextChars = 100000

const sectionDivider = "----------------------------------------------------------------------"
const resultDivider = "======================================================================"

// Options configures the research tools.
type Options struct {
	// Client is the HTTP client used for API calls. Defaults to a client
	// with a 10 second timeout.
	Client *http.Client
	// SemanticScholarURL overrides the Semantic Scholar API base URL.
	SemanticScholarURL string
	// UnpaywallURL overrides the Unpaywall API base URL.
	UnpaywallURL string
	// Email is the contact address sent with Unpaywall requests when the
	// caller does not supply one. The Unpaywall API requires it.
	Email string
	// MaxFulltextChars caps retrieved full text. Zero selects
	// DefaultMaxFulltextChars.
	MaxFulltextChars int
}

func (o *Options) normalize() {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if o.SemanticScholarURL == "" {
		o.SemanticScholarURL = "https://api.semanticscholar.org/graph/v1"
	}
	if o.UnpaywallURL == "" {
		o.UnpaywallURL = "https://api.unpaywall.org/v2"
	}
	if o.MaxFulltextChars <= 0 {
		o.MaxFulltextChars = DefaultMaxFulltextChars
	}
}

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
