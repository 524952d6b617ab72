package git

// Result is the outcome of a clone, pull or push.
type Result struct {
	// IsSuccess is true when git exited with code 0.
	IsSuccess bool

	// OutputLocation is the local repository the operation produced or
	// updated.
	OutputLocation string

	// Messages is everything git wrote to stdout and stderr.
	Messages string

	ExitCode int
}

// Equal reports whether r and other hold the same values. A nil other is
// never equal.
func (r *Result) Equal(other *Result) bool {
	if r == nil || other == nil {
		return false
	}
	return *r == *other
}
