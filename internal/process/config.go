package process

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// WindowStyle is the window presentation requested for the child process.
// It only has an effect on Windows.
type WindowStyle int

const (
	WindowNormal WindowStyle = iota
	WindowHidden
	WindowMinimized
	WindowMaximized
)

func (w WindowStyle) String() string {
	switch w {
	case WindowNormal:
		return "normal"
	case WindowHidden:
		return "hidden"
	case WindowMinimized:
		return "minimized"
	case WindowMaximized:
		return "maximized"
	default:
		return "unknown"
	}
}

// StartConfig describes how a process is to be started. It is produced by a
// StartInfoFunc and consumed by a ProcessFunc, once per invocation.
type StartConfig struct {
	// Path is the executable, absolute or resolvable on PATH.
	Path string

	// Arguments is the raw argument string the config was built from.
	Arguments string

	// Args is Arguments split into argv (without the executable).
	Args []string

	// Dir is the working directory of the child.
	Dir string

	// Env is appended to the inherited environment when LoadUserProfile is
	// set, and is the whole environment otherwise.
	Env []string

	// UseShell requests shell indirection. Not supported; the default
	// process strategy rejects it.
	UseShell bool

	CreateNoWindow  bool
	ErrorDialog     bool
	LoadUserProfile bool
	WindowStyle     WindowStyle

	RedirectStdin  bool
	RedirectStdout bool
	RedirectStderr bool

	// OutputEncoding and ErrorEncoding decode the redirected streams.
	// nil passes bytes through untouched.
	OutputEncoding encoding.Encoding
	ErrorEncoding  encoding.Encoding
}

// StartInfoFunc builds the start configuration for an invocation from its
// argument string and working directory.
type StartInfoFunc func(arguments, workingDir string) (*StartConfig, error)

// DefaultStartInfo returns the start-info strategy a Runner installs for the
// executable at path: no shell, no window, no error dialogs, user profile
// loaded, all three standard streams redirected and output decoded as UTF-8.
func DefaultStartInfo(path string) StartInfoFunc {
	return func(arguments, workingDir string) (*StartConfig, error) {
		args, err := SplitArguments(arguments)
		if err != nil {
			return nil, err
		}
		return &StartConfig{
			Path:            path,
			Arguments:       arguments,
			Args:            args,
			Dir:             workingDir,
			UseShell:        false,
			CreateNoWindow:  true,
			ErrorDialog:     false,
			LoadUserProfile: true,
			WindowStyle:     WindowNormal,
			RedirectStdin:   true,
			RedirectStdout:  true,
			RedirectStderr:  true,
			OutputEncoding:  unicode.UTF8,
			ErrorEncoding:   unicode.UTF8,
		}, nil
	}
}

// SplitArguments splits an argument string into argv using shell word rules
// (quotes and backslash escapes). Nothing is expanded and no shell runs.
func SplitArguments(arguments string) ([]string, error) {
	if strings.TrimSpace(arguments) == "" {
		return nil, nil
	}
	args, err := shlex.Split(arguments)
	if err != nil {
		return nil, fmt.Errorf("split arguments %q: %w", arguments, err)
	}
	return args, nil
}

// QuoteArgument quotes s so that SplitArguments returns it as one word.
func QuoteArgument(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\#") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// CommandLine renders the executable and argument string as they would be
// typed, for logging and -print-cmd.
func (c *StartConfig) CommandLine() string {
	if c.Arguments == "" {
		return c.Path
	}
	return c.Path + " " + c.Arguments
}
