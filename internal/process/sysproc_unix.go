//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// sysProcAttr puts the child in its own process group so Stop can signal
// everything it spawned.
func sysProcAttr(_ *StartConfig) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

func terminate(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGTERM)
}

func kill(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGKILL)
}

// signalGroup signals the child's process group when it has one of its own,
// and only the child otherwise.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	pid := cmd.Process.Pid
	if cmd.SysProcAttr != nil && cmd.SysProcAttr.Setpgid {
		if pgid, err := syscall.Getpgid(pid); err == nil && pgid == pid {
			return syscall.Kill(-pgid, sig)
		}
	}
	return cmd.Process.Signal(sig)
}
