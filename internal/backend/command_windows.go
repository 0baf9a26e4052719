//go:build windows

package backend

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts cmd in a new process group. Windows has no group
// kill, so cancellation kills the direct child and WaitDelay stops Run from
// waiting on pipes a descendant still holds.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
