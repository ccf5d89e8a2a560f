// Package runner implements the bounded execution contract shared by all
// tools that run arbitrarily long operations or spawn external processes:
// wall-clock timeouts with forced termination, partial-output capture,
// per-stream truncation, and four-way status classification.
package runner

// Status classifies the outcome of a bounded invocation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
	StatusTimeout Status = "TIMEOUT_ERROR"
	StatusFatal   Status = "FATAL_ERROR"
)

// Semantic exit codes for non-native failure paths.
const (
	ExitSuccess = 0
	ExitTimeout = -1 // wall-clock limit exceeded
	ExitFatal   = -2 // unexpected engine fault
)

// Result represents the outcome of one bounded invocation. Stdout and
// Stderr may be truncated; Warning then carries the truncation notice.
type Result struct {
	Status   Status `json:"status"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Warning  string `json:"warning,omitempty"`
}

// Succeeded reports whether the invocation completed with a zero exit
// signal.
func (r *Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Success creates a SUCCESS result carrying the given stdout text.
func Success(stdout string) *Result {
	return &Result{Status: StatusSuccess, ExitCode: ExitSuccess, Stdout: stdout}
}

// Fatal creates a FATAL_ERROR result describing an unexpected fault.
func Fatal(description string) *Result {
	return &Result{Status: StatusFatal, ExitCode: ExitFatal, Stderr: description}
}
