package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// envList is a custom flag type for repeatable -env flags.
type envList []string

func (e *envList) String() string {
	return strings.Join(*e, ", ")
}

func (e *envList) Set(value string) error {
	*e = append(*e, value)
	return nil
}

// ParseFlags parses command-line arguments (without the program name) and
// returns a Config.
//
// Positional arguments name the executable and its arguments, so
// "woodpecker -- git status" is the same as "woodpecker -exe git -args status".
// Positional arguments are re-quoted before being joined.
func ParseFlags(args []string, output io.Writer) (*Config, error) {
	cfg := DefaultConfig()
	var env envList

	fs := flag.NewFlagSet("woodpecker", flag.ContinueOnError)
	fs.SetOutput(output)

	// Custom usage message
	fs.Usage = func() {
		fmt.Fprintf(output, `woodpecker - run an external process and capture its output

Usage:
  woodpecker [flags] [--] <executable> [args...]
  woodpecker [flags] -git clone|pull|push -src <source> -dst <destination>

Process Flags:
`)
		printFlagCategory(fs, output, []string{"exe", "args", "dir", "env", "stop-timeout"})

		fmt.Fprintf(output, "\nGit:\n")
		printFlagCategory(fs, output, []string{"git", "git-path", "src", "dst"})

		fmt.Fprintf(output, "\nOutput:\n")
		printFlagCategory(fs, output, []string{"tui", "quiet", "summary"})

		fmt.Fprintf(output, "\nObservability:\n")
		printFlagCategory(fs, output, []string{"metrics", "v", "log-format", "log-level"})

		fmt.Fprintf(output, "\nDiagnostics:\n")
		printFlagCategory(fs, output, []string{"print-cmd", "skip-preflight"})

		fmt.Fprintf(output, `
Exit status is the child's exit status. Launch failures exit 127.

Examples:
  # Run a command, echoing its output
  woodpecker -- ls -la /tmp

  # Clone a repository with a live view
  woodpecker -tui -git clone -src https://github.com/google/shlex -dst /tmp/shlex

`)
	}

	// Process
	fs.StringVar(&cfg.Executable, "exe", cfg.Executable, "Executable to run (path or name on PATH)")
	fs.StringVar(&cfg.Arguments, "args", cfg.Arguments, "Argument string, split with shell-style quoting")
	fs.StringVar(&cfg.WorkingDir, "dir", cfg.WorkingDir, "Working directory (default: current)")
	fs.Var(&env, "env", "Add KEY=VALUE to the child environment (can repeat)")
	fs.DurationVar(&cfg.StopTimeout, "stop-timeout", cfg.StopTimeout, "Grace period between SIGTERM and SIGKILL on interrupt")

	// Git
	fs.StringVar(&cfg.GitOp, "git", cfg.GitOp, `Git operation: "clone", "pull" or "push"`)
	fs.StringVar(&cfg.GitPath, "git-path", cfg.GitPath, "Path to git binary")
	fs.StringVar(&cfg.Source, "src", cfg.Source, "Git source location")
	fs.StringVar(&cfg.Destination, "dst", cfg.Destination, "Git destination location")

	// Output
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Show a live terminal view")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Do not echo child output")
	fs.BoolVar(&cfg.Summary, "summary", cfg.Summary, "Print an exit summary")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty = disabled)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json", "text" or "console"`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn" or "error"`)

	// Diagnostics
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print the command line and exit")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Env = env

	// Positional arguments: executable and its arguments
	if rest := fs.Args(); len(rest) > 0 {
		if cfg.Executable != "" {
			return nil, fmt.Errorf("executable given twice: -exe %q and %q", cfg.Executable, rest[0])
		}
		cfg.Executable = rest[0]
		quoted := make([]string, 0, len(rest)-1)
		for _, a := range rest[1:] {
			quoted = append(quoted, process.QuoteArgument(a))
		}
		if len(quoted) > 0 {
			if cfg.Arguments != "" {
				cfg.Arguments += " "
			}
			cfg.Arguments += strings.Join(quoted, " ")
		}
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, w io.Writer, names []string) {
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" && f.DefValue != "[]" {
					fmt.Fprintf(w, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(w)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	g, ok := f.Value.(flag.Getter)
	if !ok {
		return "value"
	}
	switch g.Get().(type) {
	case bool:
		return ""
	case time.Duration:
		return "duration"
	case int, int64:
		return "int"
	default:
		return "string"
	}
}
