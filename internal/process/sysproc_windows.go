//go:build windows

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

func sysProcAttr(cfg *StartConfig) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		HideWindow:    cfg.CreateNoWindow || cfg.WindowStyle == WindowHidden,
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}
	if cfg.CreateNoWindow {
		attr.CreationFlags |= windows.CREATE_NO_WINDOW
	}
	if !cfg.ErrorDialog {
		attr.CreationFlags |= windows.CREATE_DEFAULT_ERROR_MODE
	}
	return attr
}

// Windows has no SIGTERM; both paths kill the process.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func kill(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
