package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// SourceCode manipulates a project's source code.
type SourceCode interface {
	// Clone creates a new local copy of SourceLocation at DestinationLocation.
	Clone(ctx context.Context, p Parameters) (*Result, error)

	// Pull fetches the latest changes from SourceLocation into the local
	// repository at DestinationLocation.
	Pull(ctx context.Context, p Parameters) (*Result, error)

	// Push sends the local repository at SourceLocation to
	// DestinationLocation.
	Push(ctx context.Context, p Parameters) (*Result, error)
}

// Operations accepted by Command.
const (
	OpClone = "clone"
	OpPull  = "pull"
	OpPush  = "push"
)

// DefaultStopTimeout is how long a cancelled operation gets to exit after
// SIGTERM before it is killed.
const DefaultStopTimeout = 5 * time.Second

// Client implements SourceCode by running the git executable.
type Client struct {
	// Path is the git executable. Empty means DefaultPath.
	Path string

	// Env is added to the environment of every git process.
	Env []string

	// StopTimeout applies when the context is cancelled.
	StopTimeout time.Duration

	// Options are passed to every Runner.
	Options []process.Option

	// Prepare, if set, is called with each Runner before it runs, e.g. to
	// subscribe to its output.
	Prepare func(*process.Runner)

	Logger *slog.Logger
}

var _ SourceCode = (*Client)(nil)

// NewClient returns a Client for the default git executable.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		StopTimeout: DefaultStopTimeout,
		Logger:      logger,
	}
}

// Clone runs "git clone <source> <destination>" in the parent directory of
// the destination.
func (c *Client) Clone(ctx context.Context, p Parameters) (*Result, error) {
	return c.run(ctx, OpClone, p)
}

// Pull runs "git pull <source>" in the destination repository.
func (c *Client) Pull(ctx context.Context, p Parameters) (*Result, error) {
	return c.run(ctx, OpPull, p)
}

// Push runs "git push <destination>" in the source repository.
func (c *Client) Push(ctx context.Context, p Parameters) (*Result, error) {
	return c.run(ctx, OpPush, p)
}

// operation is one planned git invocation.
type operation struct {
	args   string
	dir    string
	output string
}

func plan(op string, p Parameters) (operation, error) {
	if strings.TrimSpace(p.SourceLocation) == "" {
		return operation{}, fmt.Errorf("source location is empty: %w", process.ErrInvalidArgument)
	}
	if strings.TrimSpace(p.DestinationLocation) == "" {
		return operation{}, fmt.Errorf("destination location is empty: %w", process.ErrInvalidArgument)
	}

	switch op {
	case OpClone:
		dst, err := filepath.Abs(p.DestinationLocation)
		if err != nil {
			return operation{}, fmt.Errorf("resolve destination: %w", err)
		}
		return operation{
			args:   "clone " + process.QuoteArgument(localPath(p.SourceLocation)) + " " + process.QuoteArgument(dst),
			dir:    filepath.Dir(dst),
			output: dst,
		}, nil
	case OpPull:
		return operation{
			args:   "pull " + process.QuoteArgument(p.SourceLocation),
			dir:    p.DestinationLocation,
			output: p.DestinationLocation,
		}, nil
	case OpPush:
		return operation{
			args:   "push " + process.QuoteArgument(p.DestinationLocation),
			dir:    p.SourceLocation,
			output: p.SourceLocation,
		}, nil
	default:
		return operation{}, fmt.Errorf("unknown git operation %q: %w", op, process.ErrInvalidArgument)
	}
}

// Command returns the Runner for op ("clone", "pull" or "push") without
// running it. It is what Clone, Pull and Push run.
func (c *Client) Command(op string, p Parameters) (*process.Runner, error) {
	o, err := plan(op, p)
	if err != nil {
		return nil, err
	}
	return c.newRunner(o.args, o.dir)
}

func (c *Client) newRunner(args, dir string) (*process.Runner, error) {
	r, err := NewProcess(c.Path, args, dir, c.options()...)
	if err != nil {
		return nil, err
	}

	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	defaults := process.DefaultStartInfo(path)
	env := append([]string{"GIT_TERMINAL_PROMPT=0"}, c.Env...)
	r.OverrideStartInfoConstruction(func(arguments, workingDir string) (*process.StartConfig, error) {
		cfg, err := defaults(arguments, workingDir)
		if err != nil {
			return nil, err
		}
		cfg.Env = append(cfg.Env, env...)
		return cfg, nil
	})
	return r, nil
}

func (c *Client) options() []process.Option {
	opts := make([]process.Option, 0, len(c.Options)+1)
	if c.Logger != nil {
		opts = append(opts, process.WithLogger(c.Logger))
	}
	return append(opts, c.Options...)
}

func (c *Client) run(ctx context.Context, op string, p Parameters) (*Result, error) {
	o, err := plan(op, p)
	if err != nil {
		return nil, err
	}
	r, err := c.newRunner(o.args, o.dir)
	if err != nil {
		return nil, err
	}
	if c.Prepare != nil {
		c.Prepare(r)
	}

	timeout := c.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	if err := process.RunContext(ctx, r, timeout); err != nil {
		return nil, fmt.Errorf("git %s: %w", op, err)
	}

	out := r.Outcome()
	result := &Result{
		IsSuccess:      out.Success(),
		OutputLocation: o.output,
		Messages:       out.Messages,
		ExitCode:       out.ExitCode,
	}
	c.logger().Debug("git_finished",
		"op", op,
		"exit_code", result.ExitCode,
		"output_location", o.output,
	)
	return result, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// localPath makes an existing relative local path absolute, since clone runs
// in another directory. URLs and scp-style remotes are returned unchanged.
func localPath(src string) string {
	if strings.Contains(src, "://") || filepath.IsAbs(src) {
		return src
	}
	if _, err := os.Stat(src); err != nil {
		return src
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return src
	}
	return abs
}
