package process

import (
	"errors"
	"os"
	"os/exec"
)

// Handle is the live process for one invocation, built from a StartConfig.
// It owns the OS resources (pipes, PID) until the process has been waited on.
type Handle struct {
	Cmd    *exec.Cmd
	Config *StartConfig

	// EnableExitEvents controls whether the Runner notifies exit subscribers
	// for this handle. The default strategy turns it on.
	EnableExitEvents bool
}

// ProcessFunc builds the process handle from a start configuration.
// The returned command must not be started.
type ProcessFunc func(cfg *StartConfig) (*Handle, error)

var errShellUnsupported = errors.New("shell execution is not supported")

// DefaultProcess is the process strategy a Runner installs by default.
func DefaultProcess(cfg *StartConfig) (*Handle, error) {
	if cfg == nil {
		return nil, errors.New("nil start configuration")
	}
	if cfg.UseShell {
		return nil, errShellUnsupported
	}

	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Dir = cfg.Dir
	if cfg.LoadUserProfile {
		if len(cfg.Env) > 0 {
			cmd.Env = append(os.Environ(), cfg.Env...)
		}
	} else {
		cmd.Env = append([]string{}, cfg.Env...)
	}
	cmd.SysProcAttr = sysProcAttr(cfg)

	return &Handle{
		Cmd:              cmd,
		Config:           cfg,
		EnableExitEvents: true,
	}, nil
}

// Pid returns the process ID, or -1 if the process has not started.
func (h *Handle) Pid() int {
	if h == nil || h.Cmd == nil || h.Cmd.Process == nil {
		return -1
	}
	return h.Cmd.Process.Pid
}
