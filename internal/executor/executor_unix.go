//go:build !windows

package executor

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup places the child in its own process group and cancels
// by signalling the whole group. Killing only the direct child would leave
// grandchildren running past the deadline, still holding the output pipes.
func configureProcessGroup(proc *exec.Cmd) {
	proc.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	proc.Cancel = func() error {
		err := syscall.Kill(-proc.Process.Pid, syscall.SIGKILL)
		if err == syscall.ESRCH {
			return os.ErrProcessDone
		}
		return err
	}
}
