// Package process runs a single external executable, captures its combined
// output and reports how it exited.
package process

// State represents the lifecycle position of a Runner.
type State int

const (
	// StateCreated is the initial state before Run has been called.
	StateCreated State = iota

	// StateStarting indicates the start configuration and handle are being
	// assembled and the process spawned.
	StateStarting

	// StateRunning indicates the process is alive and its output is being read.
	StateRunning

	// StateExited indicates the process has exited and its output is drained.
	StateExited

	// StateFailed indicates the process could not be launched.
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true once Run has finished, successfully or not.
func (s State) IsTerminal() bool {
	return s == StateExited || s == StateFailed
}
