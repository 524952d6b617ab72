package process

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Invocation is the fixed input of a Runner.
type Invocation struct {
	Path       string
	Arguments  string
	WorkingDir string
}

// Outcome is what a finished invocation produced.
type Outcome struct {
	ExitCode int
	Messages string
	Pid      int
	Duration time.Duration
}

// Success reports whether the process exited with code 0.
func (o Outcome) Success() bool {
	return o.ExitCode == 0
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver attaches an Observer, typically a metrics collector.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithEnv adds KEY=VALUE entries to the child environment by wrapping the
// start-info strategy. A later OverrideStartInfoConstruction replaces it.
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		if len(env) == 0 {
			return
		}
		base := r.startInfo
		extra := append([]string(nil), env...)
		r.startInfo = func(arguments, workingDir string) (*StartConfig, error) {
			cfg, err := base(arguments, workingDir)
			if err != nil {
				return nil, err
			}
			cfg.Env = append(cfg.Env, extra...)
			return cfg, nil
		}
	}
}

// Runner runs one external process to completion. Build it with New, adjust
// the construction strategies and subscriptions, then call Run once.
type Runner struct {
	inv      Invocation
	logger   *slog.Logger
	observer Observer

	startInfo StartInfoFunc
	construct ProcessFunc

	subMu      sync.Mutex
	outputSubs []func(Chunk)
	exitSubs   []func(Outcome)

	// deliverMu keeps the log and output notifications in the same order.
	deliverMu sync.Mutex
	messages  MessageLog

	state    atomic.Int32
	exitCode atomic.Int32
	exitOnce sync.Once
	done     chan struct{}

	handleMu  sync.Mutex
	handle    *Handle
	startTime time.Time
	duration  time.Duration
	pid       int
}

// New creates a Runner for the executable at path. It fails with
// ErrInvalidArgument when path is empty; nothing is started.
func New(path, arguments, workingDir string, opts ...Option) (*Runner, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("executable path is empty: %w", ErrInvalidArgument)
	}

	r := &Runner{
		inv: Invocation{
			Path:       path,
			Arguments:  arguments,
			WorkingDir: workingDir,
		},
		logger:    slog.New(slog.DiscardHandler),
		observer:  NoopObserver{},
		startInfo: DefaultStartInfo(path),
		construct: DefaultProcess,
		done:      make(chan struct{}),
		pid:       -1,
	}
	r.exitCode.Store(-1)
	r.state.Store(int32(StateCreated))

	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// OverrideStartInfoConstruction replaces the start-info strategy. nil restores
// the default. Must be called before Run.
func (r *Runner) OverrideStartInfoConstruction(fn StartInfoFunc) {
	if !r.configurable("start_info") {
		return
	}
	if fn == nil {
		fn = DefaultStartInfo(r.inv.Path)
	}
	r.startInfo = fn
}

// OverrideProcessConstruction replaces the process strategy. nil restores the
// default. Must be called before Run.
func (r *Runner) OverrideProcessConstruction(fn ProcessFunc) {
	if !r.configurable("process") {
		return
	}
	if fn == nil {
		fn = DefaultProcess
	}
	r.construct = fn
}

func (r *Runner) configurable(strategy string) bool {
	if r.State() == StateCreated {
		return true
	}
	r.logger.Warn("strategy_override_ignored",
		"strategy", strategy,
		"state", r.State().String(),
	)
	return false
}

// OnOutput subscribes fn to every chunk of output, delivered in arrival order.
// fn runs on a reader goroutine and must not block for long.
func (r *Runner) OnOutput(fn func(Chunk)) {
	if fn == nil {
		return
	}
	r.subMu.Lock()
	r.outputSubs = append(r.outputSubs, fn)
	r.subMu.Unlock()
}

// OnExit subscribes fn to the exit notification. It fires once, after the
// output has been drained and the exit code is readable.
func (r *Runner) OnExit(fn func(Outcome)) {
	if fn == nil {
		return
	}
	r.subMu.Lock()
	r.exitSubs = append(r.exitSubs, fn)
	r.subMu.Unlock()
}

// Run assembles, starts and waits for the process. It blocks until the
// process has exited and all of its output is captured.
//
// A non-zero exit code is not an error: read it from ExitCode. Run returns an
// error matching ErrLaunchFailure if the process could not be started, and
// ErrAlreadyRun on a second call.
func (r *Runner) Run() error {
	if !r.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return ErrAlreadyRun
	}
	defer close(r.done)

	handle, err := r.assemble()
	if err != nil {
		return r.fail(err)
	}
	cmd := handle.Cmd
	cfg := handle.Config

	readers, stdin, err := r.attachStreams(cmd, cfg)
	if err != nil {
		return r.fail(err)
	}

	r.handleMu.Lock()
	r.handle = handle
	r.startTime = time.Now()
	err = cmd.Start()
	if err == nil {
		r.pid = cmd.Process.Pid
	}
	r.handleMu.Unlock()
	if err != nil {
		return r.fail(r.launchError("start", err))
	}

	// Nothing is ever written to stdin; closing it lets the child see EOF.
	if stdin != nil {
		stdin.Close()
	}

	r.setState(StateRunning)
	r.logger.Info("process_started",
		"path", r.inv.Path,
		"args", r.inv.Arguments,
		"dir", r.inv.WorkingDir,
		"pid", r.pid,
	)
	r.observer.InvocationStarted(r.inv)

	var wg sync.WaitGroup
	for _, sr := range readers {
		wg.Add(1)
		go func(sr *streamReader) {
			defer wg.Done()
			sr.run()
		}(sr)
	}

	// The readers hit EOF when the child closes its ends of the pipes. Only
	// then is it safe to Wait, which closes ours.
	wg.Wait()
	waitErr := cmd.Wait()

	r.handleMu.Lock()
	r.duration = time.Since(r.startTime)
	r.handleMu.Unlock()

	exitCode := extractExitCode(waitErr)
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		r.logger.Warn("process_wait_failed",
			"path", r.inv.Path,
			"pid", r.pid,
			"error", waitErr,
		)
	}
	r.exitCode.Store(int32(exitCode))
	r.setState(StateExited)

	out := r.Outcome()
	r.logger.Info("process_exited",
		"path", r.inv.Path,
		"pid", out.Pid,
		"exit_code", out.ExitCode,
		"duration", out.Duration.String(),
		"lines", r.messages.Chunks(),
	)
	for _, sr := range readers {
		bytesRead, linesRead := sr.Stats()
		r.logger.Debug("stream_stats",
			"stream", sr.stream.String(),
			"bytes_read", bytesRead,
			"lines_read", linesRead,
		)
	}
	r.observer.InvocationFinished(r.inv, out)

	if handle.EnableExitEvents {
		r.notifyExit(out)
	}
	return nil
}

// assemble runs both construction strategies.
func (r *Runner) assemble() (*Handle, error) {
	cfg, err := r.startInfo(r.inv.Arguments, r.inv.WorkingDir)
	if err != nil {
		return nil, r.launchError("start_info", err)
	}
	if cfg == nil {
		return nil, r.launchError("start_info", errors.New("strategy returned no configuration"))
	}

	handle, err := r.construct(cfg)
	if err != nil {
		return nil, r.launchError("process", err)
	}
	if handle == nil || handle.Cmd == nil {
		return nil, r.launchError("process", errors.New("strategy returned no command"))
	}
	if handle.Config == nil {
		handle.Config = cfg
	}
	return handle, nil
}

// attachStreams wires the redirected streams of cmd. Streams that are not
// redirected are inherited from this process.
func (r *Runner) attachStreams(cmd *exec.Cmd, cfg *StartConfig) ([]*streamReader, io.WriteCloser, error) {
	var readers []*streamReader

	if cfg.RedirectStdout {
		out, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, r.launchError("pipe", err)
		}
		readers = append(readers, newStreamReader(Stdout, out, cfg.OutputEncoding, r.deliver, r.logger))
	} else if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	if cfg.RedirectStderr {
		errPipe, err := cmd.StderrPipe()
		if err != nil {
			return nil, nil, r.launchError("pipe", err)
		}
		readers = append(readers, newStreamReader(Stderr, errPipe, cfg.ErrorEncoding, r.deliver, r.logger))
	} else if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	var stdin io.WriteCloser
	if cfg.RedirectStdin {
		in, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, r.launchError("pipe", err)
		}
		stdin = in
	} else if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}

	return readers, stdin, nil
}

// deliver appends a chunk to the log and forwards it to subscribers.
func (r *Runner) deliver(c Chunk) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.messages.Append(c.Text)
	r.observer.ChunkCaptured(r.inv, c.Stream, len(c.Text))

	r.subMu.Lock()
	subs := r.outputSubs
	r.subMu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

func (r *Runner) notifyExit(out Outcome) {
	r.exitOnce.Do(func() {
		r.subMu.Lock()
		subs := r.exitSubs
		r.subMu.Unlock()
		for _, fn := range subs {
			fn(out)
		}
	})
}

func (r *Runner) launchError(op string, err error) *LaunchError {
	return &LaunchError{
		Op:   op,
		Path: r.inv.Path,
		Dir:  r.inv.WorkingDir,
		Err:  err,
	}
}

func (r *Runner) fail(err error) error {
	r.setState(StateFailed)
	r.logger.Error("launch_failed",
		"path", r.inv.Path,
		"dir", r.inv.WorkingDir,
		"error", err,
	)
	r.observer.InvocationFailed(r.inv, err)
	return err
}

// Stop asks a running process to terminate, then kills it if it has not
// exited within timeout. Run has no deadline of its own; Stop is how callers
// impose one from another goroutine. It returns nil if nothing is running.
func (r *Runner) Stop(timeout time.Duration) error {
	if r.State() != StateRunning {
		return nil
	}

	r.handleMu.Lock()
	handle := r.handle
	r.handleMu.Unlock()
	if handle == nil || handle.Cmd.Process == nil {
		return nil
	}

	if err := terminate(handle.Cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.logger.Debug("terminate_failed", "pid", handle.Pid(), "error", err)
	}

	select {
	case <-r.done:
		return nil
	case <-time.After(timeout):
		r.logger.Warn("force_killing_process",
			"path", r.inv.Path,
			"pid", handle.Pid(),
		)
		if err := kill(handle.Cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill pid %d: %w", handle.Pid(), err)
		}
		return errors.New("process did not exit gracefully")
	}
}

// Messages returns everything captured so far, each chunk followed by
// LineSeparator. Once Run has returned it is the complete output.
func (r *Runner) Messages() string {
	return r.messages.String()
}

// ExitCode returns the exit code, or -1 until Run has returned.
func (r *Runner) ExitCode() int {
	return int(r.exitCode.Load())
}

// Outcome returns the exit code and captured output.
func (r *Runner) Outcome() Outcome {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()
	return Outcome{
		ExitCode: r.ExitCode(),
		Messages: r.Messages(),
		Pid:      r.pid,
		Duration: r.duration,
	}
}

// Pid returns the process ID, or -1 if the process has not started.
func (r *Runner) Pid() int {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()
	return r.pid
}

// Invocation returns the path, arguments and working directory.
func (r *Runner) Invocation() Invocation {
	return r.inv
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// Done returns a channel closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
}

// extractExitCode extracts the exit code from a Wait() error.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// Signal exit: 128 + signal number
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}

	// Unknown error, assume exit code 1
	return 1
}
