// Package git runs git through process.Runner and reports clone, pull and
// push outcomes as source code results.
package git

import (
	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// DefaultPath is the git executable used when none is given.
const DefaultPath = "git"

// NewProcess returns a Runner for git with the given argument string and
// working directory. An empty path means DefaultPath.
func NewProcess(path, arguments, workingDir string, opts ...process.Option) (*process.Runner, error) {
	if path == "" {
		path = DefaultPath
	}
	return process.New(path, arguments, workingDir, opts...)
}
