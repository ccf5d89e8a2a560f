//go:build unix

package runner

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// newShellCommand builds a shell invocation that runs in its own process
// group, so a timeout kills the whole tree and not just the shell.
func newShellCommand(ctx context.Context, command string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if err == syscall.ESRCH {
			return os.ErrProcessDone
		}
		return err
	}
	// Grandchildren may hold the output pipes open past the kill; don't
	// let Wait block on them forever.
	cmd.WaitDelay = 5 * time.Second
	return cmd
}
