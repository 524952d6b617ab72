// Package metrics provides Prometheus metrics for process invocations.
//
// The Collector implements process.Observer; attach it with
// process.WithObserver and serve the registry with Server.
package metrics

import (
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// Collector records invocation metrics. It is safe for concurrent use.
type Collector struct {
	info             *prometheus.GaugeVec
	startedTotal     *prometheus.CounterVec
	exitsTotal       *prometheus.CounterVec
	exitCodesTotal   *prometheus.CounterVec
	launchFailures   *prometheus.CounterVec
	chunksTotal      *prometheus.CounterVec
	bytesTotal       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	activeInvocation prometheus.Gauge

	// For summary generation
	mu             sync.Mutex
	startTime      time.Time
	totalStarts    int64
	launchFailed   int64
	exitCodes      map[int]int64
	chunksByStream map[process.Stream]int64
	durations      []time.Duration
}

// NewCollector creates a collector registered with the default registry.
func NewCollector(version string) *Collector {
	return NewCollectorWithRegistry(version, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(version string, registry prometheus.Registerer) *Collector {
	c := &Collector{
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "woodpecker_info",
				Help: "Build information (value always 1)",
			},
			[]string{"version"},
		),
		startedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "woodpecker_invocations_started_total",
				Help: "Processes started",
			},
			[]string{"executable"},
		),
		exitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "woodpecker_invocations_exited_total",
				Help: "Processes exited, by category (success, error, signal)",
			},
			[]string{"executable", "category"},
		),
		exitCodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "woodpecker_exit_codes_total",
				Help: "Process exits by exit code",
			},
			[]string{"executable", "code"},
		),
		launchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "woodpecker_launch_failures_total",
				Help: "Invocations that could not be started",
			},
			[]string{"executable"},
		),
		chunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "woodpecker_output_chunks_total",
				Help: "Output lines captured, by stream",
			},
			[]string{"executable", "stream"},
		),
		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "woodpecker_output_bytes_total",
				Help: "Output bytes captured (excluding line separators), by stream",
			},
			[]string{"executable", "stream"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "woodpecker_invocation_duration_seconds",
				Help:    "Wall-clock time from start to exit",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"executable"},
		),
		activeInvocation: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "woodpecker_active_invocations",
				Help: "Processes currently running",
			},
		),
		startTime:      time.Now(),
		exitCodes:      make(map[int]int64),
		chunksByStream: make(map[process.Stream]int64),
	}

	registry.MustRegister(
		c.info,
		c.startedTotal,
		c.exitsTotal,
		c.exitCodesTotal,
		c.launchFailures,
		c.chunksTotal,
		c.bytesTotal,
		c.duration,
		c.activeInvocation,
	)

	c.info.WithLabelValues(version).Set(1)
	return c
}

// executableLabel keeps label cardinality bounded to the executable name.
func executableLabel(inv process.Invocation) string {
	return filepath.Base(inv.Path)
}

// exitCategory categorizes an exit code.
func exitCategory(exitCode int) string {
	switch {
	case exitCode == 0:
		return "success"
	case exitCode > 128:
		return "signal"
	default:
		return "error"
	}
}

// InvocationStarted implements process.Observer.
func (c *Collector) InvocationStarted(inv process.Invocation) {
	c.startedTotal.WithLabelValues(executableLabel(inv)).Inc()
	c.activeInvocation.Inc()

	c.mu.Lock()
	c.totalStarts++
	c.mu.Unlock()
}

// ChunkCaptured implements process.Observer.
func (c *Collector) ChunkCaptured(inv process.Invocation, stream process.Stream, size int) {
	exe := executableLabel(inv)
	c.chunksTotal.WithLabelValues(exe, stream.String()).Inc()
	c.bytesTotal.WithLabelValues(exe, stream.String()).Add(float64(size))

	c.mu.Lock()
	c.chunksByStream[stream]++
	c.mu.Unlock()
}

// InvocationFinished implements process.Observer.
func (c *Collector) InvocationFinished(inv process.Invocation, out process.Outcome) {
	exe := executableLabel(inv)
	c.activeInvocation.Dec()
	c.exitsTotal.WithLabelValues(exe, exitCategory(out.ExitCode)).Inc()
	c.exitCodesTotal.WithLabelValues(exe, strconv.Itoa(out.ExitCode)).Inc()
	c.duration.WithLabelValues(exe).Observe(out.Duration.Seconds())

	c.mu.Lock()
	c.exitCodes[out.ExitCode]++
	c.durations = append(c.durations, out.Duration)
	c.mu.Unlock()
}

// InvocationFailed implements process.Observer.
func (c *Collector) InvocationFailed(inv process.Invocation, _ error) {
	c.launchFailures.WithLabelValues(executableLabel(inv)).Inc()

	c.mu.Lock()
	c.launchFailed++
	c.mu.Unlock()
}

var _ process.Observer = (*Collector)(nil)

// =============================================================================
// Summary Generation
// =============================================================================

// Summary holds the data for generating an exit summary.
type Summary struct {
	Elapsed        time.Duration
	TotalStarts    int64
	LaunchFailures int64
	ExitCodes      map[int]int64
	StdoutChunks   int64
	StderrChunks   int64
	DurationMax    time.Duration
}

// GenerateSummary creates a summary of everything recorded so far.
func (c *Collector) GenerateSummary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Summary{
		Elapsed:        time.Since(c.startTime),
		TotalStarts:    c.totalStarts,
		LaunchFailures: c.launchFailed,
		ExitCodes:      make(map[int]int64, len(c.exitCodes)),
		StdoutChunks:   c.chunksByStream[process.Stdout],
		StderrChunks:   c.chunksByStream[process.Stderr],
	}
	for code, count := range c.exitCodes {
		s.ExitCodes[code] = count
	}
	for _, d := range c.durations {
		if d > s.DurationMax {
			s.DurationMax = d
		}
	}
	return s
}
