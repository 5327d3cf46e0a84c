//go:build !windows

package cli

import (
	"errors"
	"os/exec"
	"syscall"
)

// configureProcAttr puts captured runs in their own process group so
// cancellation reaches aider's children too.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate sends SIGTERM to the command's process group, or to the process
// alone when it shares ours (interactive sessions). exec escalates to SIGKILL
// after WaitDelay.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	if cmd.SysProcAttr != nil && cmd.SysProcAttr.Setpgid {
		if pgid, err := syscall.Getpgid(pid); err == nil {
			pid = -pgid
		}
	}
	err := syscall.Kill(pid, syscall.SIGTERM)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
