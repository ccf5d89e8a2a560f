//go:build windows

package runner

import (
	"context"
	"os/exec"
	"time"
)

func newShellCommand(ctx context.Context, command string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "cmd", "/C", command)
	cmd.WaitDelay = 5 * time.Second
	return cmd
}
