//go:build !windows

package preflight

import (
	"fmt"
	"syscall"
)

// Three pipes plus headroom for the metrics server and logging.
const requiredFileDescriptors = 64

// checkFileDescriptors verifies sufficient file descriptors are available.
func checkFileDescriptors() Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("unable to check: %v", err),
		}
	}

	actual := int(limit.Cur)
	if uint64(limit.Cur) > uint64(1<<31-1) {
		actual = 1<<31 - 1
	}

	return Check{
		Name:     "file_descriptors",
		Required: requiredFileDescriptors,
		Actual:   actual,
		Passed:   actual >= requiredFileDescriptors,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, requiredFileDescriptors),
	}
}
