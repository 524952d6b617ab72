package process

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned by New when the executable path is empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLaunchFailure matches every *LaunchError.
	ErrLaunchFailure = errors.New("launch failure")

	// ErrAlreadyRun is returned when Run is called on a Runner that has
	// already been run. Runners are single-shot.
	ErrAlreadyRun = errors.New("runner already run")
)

// LaunchError reports a process that never got to run: a construction
// strategy failed, or the OS refused to start the executable.
type LaunchError struct {
	Op   string // "start_info", "process", "pipe" or "start"
	Path string
	Dir  string
	Err  error
}

func (e *LaunchError) Error() string {
	if e.Dir == "" {
		return fmt.Sprintf("launch %s: %s: %v", e.Path, e.Op, e.Err)
	}
	return fmt.Sprintf("launch %s in %s: %s: %v", e.Path, e.Dir, e.Op, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Is reports ErrLaunchFailure as a match so callers need not know the type.
func (e *LaunchError) Is(target error) bool {
	return target == ErrLaunchFailure
}
