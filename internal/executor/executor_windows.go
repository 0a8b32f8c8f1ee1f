//go:build windows

package executor

import "os/exec"

// configureProcessGroup keeps the default cancellation, which kills the
// direct child; WaitDelay still unblocks the pipe copiers when descendants
// linger.
func configureProcessGroup(proc *exec.Cmd) {}
