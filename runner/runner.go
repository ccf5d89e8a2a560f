package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Timeout bounds for bounded invocations.
const (
	DefaultTimeout = 100 * time.Second
	MinTimeout     = 1 * time.Second
)

// Markers returned in place of empty partial output after a timeout.
const (
	NoPartialStdout = "No partial stdout captured."
	NoPartialStderr = "No partial stderr captured."
)

// Options configures one bounded shell invocation.
type Options struct {
	// Timeout is the wall-clock limit. Zero selects DefaultTimeout;
	// values below MinTimeout are raised to it.
	Timeout time.Duration
	// MaxOutput is the per-stream truncation cap in characters. Zero
	// selects DefaultMaxOutput.
	MaxOutput int
	// Dir is the working directory for the spawned process.
	Dir string
}

func (o *Options) normalize() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Timeout < MinTimeout {
		o.Timeout = MinTimeout
	}
	if o.MaxOutput <= 0 {
		o.MaxOutput = DefaultMaxOutput
	}
}

// RunShell executes command through the system shell under the bounded
// execution contract. It never returns an error: every failure path is
// classified into the Result's status field.
func RunShell(ctx context.Context, command string, opts Options) *Result {
	opts.normalize()

	if strings.TrimSpace(command) == "" {
		return Fatal("shell command cannot be empty")
	}

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	cmd := newShellCommand(runCtx, command)
	cmd.Dir = opts.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if runCtx.Err() != nil {
		return timeoutResult(stdout.String(), stderr.String(), opts)
	}

	if err == nil {
		return completedResult(ExitSuccess, stdout.String(), stderr.String(), opts)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return completedResult(exitErr.ExitCode(), stdout.String(), stderr.String(), opts)
	}

	// Shell could not be started at all: missing binary, permission
	// denied, bad working directory.
	return Fatal(fmt.Sprintf("unexpected execution fault: %v", err))
}

func completedResult(exitCode int, stdout, stderr string, opts Options) *Result {
	outText, outWarn := Truncate(stdout, opts.MaxOutput)
	errText, errWarn := Truncate(stderr, opts.MaxOutput)

	status := StatusSuccess
	if exitCode != ExitSuccess {
		status = StatusError
	}

	return &Result{
		Status:   status,
		ExitCode: exitCode,
		Stdout:   outText,
		Stderr:   errText,
		Warning:  JoinWarnings(outWarn, errWarn),
	}
}

func timeoutResult(stdout, stderr string, opts Options) *Result {
	if strings.TrimSpace(stdout) == "" {
		stdout = NoPartialStdout
	}
	if strings.TrimSpace(stderr) == "" {
		stderr = NoPartialStderr
	}

	// Truncation is applied after partial capture; the two limits are
	// independent and must compose.
	outText, outWarn := Truncate(stdout, opts.MaxOutput)
	errText, errWarn := Truncate(stderr, opts.MaxOutput)

	timeoutWarn := fmt.Sprintf("Command timed out after %s. Partial output captured.", opts.Timeout)

	return &Result{
		Status:   StatusTimeout,
		ExitCode: ExitTimeout,
		Stdout:   outText,
		Stderr:   errText,
		Warning:  JoinWarnings(timeoutWarn, outWarn, errWarn),
	}
}
