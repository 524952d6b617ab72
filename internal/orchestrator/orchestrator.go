// Package orchestrator wires one invocation together: preflight checks,
// metrics, output handling, the optional live view and the exit summary.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/randomizedcoder/go-woodpecker/internal/config"
	"github.com/randomizedcoder/go-woodpecker/internal/git"
	"github.com/randomizedcoder/go-woodpecker/internal/logging"
	"github.com/randomizedcoder/go-woodpecker/internal/metrics"
	"github.com/randomizedcoder/go-woodpecker/internal/preflight"
	"github.com/randomizedcoder/go-woodpecker/internal/process"
	"github.com/randomizedcoder/go-woodpecker/internal/stats"
	"github.com/randomizedcoder/go-woodpecker/internal/tui"
)

// ErrPreflightFailed is returned by Run when a preflight check fails.
var ErrPreflightFailed = errors.New("preflight checks failed (use -skip-preflight to override)")

// summaryLines is how many recent output lines the exit summary shows.
const summaryLines = 10

// Orchestrator coordinates all components for one invocation.
type Orchestrator struct {
	config  *config.Config
	logger  *slog.Logger
	version string

	stdout io.Writer
	stderr io.Writer

	registry      *prometheus.Registry
	metrics       *metrics.Collector
	metricsServer *metrics.Server

	profile *stats.Profile
	output  *logging.OutputHandler
	program *tea.Program

	mu     sync.Mutex
	runner *process.Runner
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOutput sets where echoed child output, preflight results and the exit
// summary are written. The defaults are os.Stdout and os.Stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *Orchestrator) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithVersion sets the version reported by the woodpecker_info metric.
func WithVersion(version string) Option {
	return func(o *Orchestrator) {
		o.version = version
	}
}

// New creates a new Orchestrator with the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		config:  cfg,
		logger:  logger,
		version: "dev",
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		profile: stats.NewProfile(),
		output:  logging.NewOutputHandler(logger, cfg.Verbose),
	}
	for _, opt := range opts {
		opt(o)
	}

	// Own registry so repeated runs in one process do not collide.
	o.registry = prometheus.NewRegistry()
	o.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	o.metrics = metrics.NewCollectorWithRegistry(o.version, o.registry)
	if cfg.MetricsAddr != "" {
		o.metricsServer = metrics.NewServer(cfg.MetricsAddr, o.registry, logger)
	}

	return o
}

// Registry returns the registry the metrics are recorded in.
func (o *Orchestrator) Registry() *prometheus.Registry {
	return o.registry
}

// Run executes the configured invocation. It blocks until the process has
// exited; cancelling ctx stops the process. A non-zero exit code is not an
// error. Launch failures match process.ErrLaunchFailure.
func (o *Orchestrator) Run(ctx context.Context) (process.Outcome, error) {
	startTime := time.Now()

	// Run preflight checks
	if !o.config.SkipPreflight {
		result := o.preflight()
		if o.config.Verbose || !result.Passed {
			preflight.PrintResults(o.stderr, result)
		}
		if !result.Passed {
			return process.Outcome{ExitCode: -1}, ErrPreflightFailed
		}
	}

	// Start metrics server
	if o.metricsServer != nil {
		if err := o.metricsServer.Start(); err != nil {
			return process.Outcome{ExitCode: -1}, fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := o.metricsServer.Shutdown(shutdownCtx); err != nil {
				o.logger.Warn("metrics_server_shutdown_error", "error", err)
			}
		}()
	}

	o.logger.Info("invocation_starting",
		"version", o.version,
		"command", o.commandLine(),
		"metrics_addr", o.metricsAddr(),
	)

	var out process.Outcome
	var err error
	if o.config.TUIEnabled {
		out, err = o.runWithTUI(ctx)
	} else {
		out, err = o.execute(ctx)
	}

	summary := o.metrics.GenerateSummary()
	o.logger.Info("invocation_complete",
		"exit_code", out.ExitCode,
		"launch_failures", summary.LaunchFailures,
		"stdout_lines", summary.StdoutChunks,
		"stderr_lines", summary.StderrChunks,
		"elapsed", time.Since(startTime).String(),
	)

	if o.config.Summary && err == nil {
		fmt.Fprint(o.stderr, stats.FormatExitSummary(out, o.profile, stats.SummaryConfig{
			CommandLine: o.commandLine(),
			WorkingDir:  o.config.WorkingDir,
			RecentLines: o.output.RecentLines(summaryLines),
			MetricsAddr: o.metricsAddr(),
		}))
	}

	return out, err
}

// runWithTUI runs the process while the live view owns the terminal.
// Quitting the view stops the process.
func (o *Orchestrator) runWithTUI(ctx context.Context) (process.Outcome, error) {
	o.program = tea.NewProgram(tui.New(tui.Config{
		CommandLine: o.commandLine(),
		WorkingDir:  o.config.WorkingDir,
		MetricsAddr: o.metricsAddr(),
		Profile:     o.profile,
	}), tea.WithAltScreen(), tea.WithOutput(o.stdout))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out process.Outcome
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		out, err = o.execute(ctx)
	}()

	go func() {
		<-ctx.Done()
		tui.SendQuit(o.program)
	}()

	if _, tuiErr := o.program.Run(); tuiErr != nil {
		o.logger.Warn("tui_failed", "error", tuiErr)
	}
	cancel()
	<-done
	return out, err
}

// execute runs the process or git operation.
func (o *Orchestrator) execute(ctx context.Context) (process.Outcome, error) {
	opts := []process.Option{
		process.WithLogger(o.logger),
		process.WithObserver(o.observer()),
	}

	if o.config.IsGit() {
		return o.executeGit(ctx, opts)
	}

	opts = append(opts, process.WithEnv(o.config.Env...))
	r, err := process.New(o.config.Executable, o.config.Arguments, o.config.WorkingDir, opts...)
	if err != nil {
		return process.Outcome{ExitCode: -1}, err
	}
	o.prepare(r)

	err = process.RunContext(ctx, r, o.config.StopTimeout)
	return r.Outcome(), err
}

func (o *Orchestrator) executeGit(ctx context.Context, opts []process.Option) (process.Outcome, error) {
	client := o.gitClient(opts)
	params := o.gitParameters()

	var source git.SourceCode = client
	operations := map[string]func(context.Context, git.Parameters) (*git.Result, error){
		git.OpClone: source.Clone,
		git.OpPull:  source.Pull,
		git.OpPush:  source.Push,
	}
	operation, ok := operations[o.config.GitOp]
	if !ok {
		return process.Outcome{ExitCode: -1}, fmt.Errorf("unknown git operation %q: %w", o.config.GitOp, process.ErrInvalidArgument)
	}

	result, err := operation(ctx, params)
	if err != nil {
		return o.currentOutcome(), err
	}

	o.logger.Info("git_result",
		"op", o.config.GitOp,
		"success", result.IsSuccess,
		"exit_code", result.ExitCode,
		"output_location", result.OutputLocation,
		"params_hash", fmt.Sprintf("%016x", params.Hash()),
	)
	return o.currentOutcome(), nil
}

func (o *Orchestrator) gitClient(opts []process.Option) *git.Client {
	client := git.NewClient(o.logger)
	client.Path = o.config.GitPath
	client.Env = o.config.Env
	client.StopTimeout = o.config.StopTimeout
	client.Options = opts
	client.Prepare = o.prepare
	return client
}

func (o *Orchestrator) gitParameters() git.Parameters {
	return git.Parameters{
		SourceLocation:      o.config.Source,
		DestinationLocation: o.config.Destination,
	}
}

// prepare subscribes the output consumers to a runner before it runs.
func (o *Orchestrator) prepare(r *process.Runner) {
	o.mu.Lock()
	o.runner = r
	o.mu.Unlock()

	r.OnOutput(o.output.Handle)
	r.OnOutput(o.profile.Observe)
	switch {
	case o.program != nil:
		p := o.program
		r.OnOutput(func(c process.Chunk) { tui.SendOutput(p, c) })
	case !o.config.Quiet:
		r.OnOutput(o.echo)
	}
}

// echo mirrors a chunk to our own stdout or stderr. Output callbacks are
// serialized by the runner.
func (o *Orchestrator) echo(c process.Chunk) {
	w := o.stdout
	if c.Stream == process.Stderr {
		w = o.stderr
	}
	fmt.Fprintln(w, c.Text)
}

func (o *Orchestrator) observer() process.Observer {
	obs := process.MultiObserver{o.metrics}
	if o.program != nil {
		obs = append(obs, tui.NewObserver(o.program, o.currentPid))
	}
	return obs
}

func (o *Orchestrator) current() *process.Runner {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runner
}

func (o *Orchestrator) currentPid() int {
	if r := o.current(); r != nil {
		return r.Pid()
	}
	return -1
}

func (o *Orchestrator) currentOutcome() process.Outcome {
	if r := o.current(); r != nil {
		return r.Outcome()
	}
	return process.Outcome{ExitCode: -1, Pid: -1}
}

func (o *Orchestrator) metricsAddr() string {
	if o.metricsServer == nil {
		return ""
	}
	if addr := o.metricsServer.Addr(); addr != "" {
		return addr
	}
	return o.config.MetricsAddr
}

func (o *Orchestrator) executable() string {
	if o.config.IsGit() {
		return o.config.GitPath
	}
	return o.config.Executable
}

// preflight runs the checks that apply to this invocation.
func (o *Orchestrator) preflight() *preflight.Result {
	var extra []preflight.Check
	switch o.config.GitOp {
	case git.OpClone:
		extra = append(extra, preflight.CheckCloneDestination(o.config.Destination))
	case git.OpPull:
		extra = append(extra, preflight.CheckRepository("pull_destination", o.config.Destination))
	case git.OpPush:
		extra = append(extra, preflight.CheckRepository("push_source", o.config.Source))
	}
	return preflight.RunAll(o.executable(), o.config.WorkingDir, extra...)
}
