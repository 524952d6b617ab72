package metrics

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newTestCollector() (*Collector, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	return NewCollectorWithRegistry("test", registry), registry
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

var gitInv = process.Invocation{Path: "/usr/bin/git", Arguments: "status", WorkingDir: "/tmp"}

// =============================================================================
// Tests: Collector
// =============================================================================

func TestCollector_Lifecycle(t *testing.T) {
	c, _ := newTestCollector()

	c.InvocationStarted(gitInv)
	if got := testutil.ToFloat64(c.activeInvocation); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}

	c.ChunkCaptured(gitInv, process.Stdout, 10)
	c.ChunkCaptured(gitInv, process.Stdout, 5)
	c.ChunkCaptured(gitInv, process.Stderr, 3)
	c.InvocationFinished(gitInv, process.Outcome{ExitCode: 0, Duration: 250 * time.Millisecond})

	if got := testutil.ToFloat64(c.startedTotal.WithLabelValues("git")); got != 1 {
		t.Errorf("started{git} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.activeInvocation); got != 0 {
		t.Errorf("active = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.chunksTotal.WithLabelValues("git", "stdout")); got != 2 {
		t.Errorf("chunks{stdout} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.bytesTotal.WithLabelValues("git", "stdout")); got != 15 {
		t.Errorf("bytes{stdout} = %v, want 15", got)
	}
	if got := testutil.ToFloat64(c.exitsTotal.WithLabelValues("git", "success")); got != 1 {
		t.Errorf("exits{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.exitCodesTotal.WithLabelValues("git", "0")); got != 1 {
		t.Errorf("exit_codes{0} = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(c.duration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestCollector_LaunchFailure(t *testing.T) {
	c, _ := newTestCollector()
	c.InvocationFailed(gitInv, process.ErrLaunchFailure)

	if got := testutil.ToFloat64(c.launchFailures.WithLabelValues("git")); got != 1 {
		t.Errorf("launch_failures = %v, want 1", got)
	}
	s := c.GenerateSummary()
	if s.LaunchFailures != 1 || s.TotalStarts != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestExitCategory(t *testing.T) {
	testCases := []struct {
		code int
		want string
	}{
		{0, "success"},
		{1, "error"},
		{128, "error"},
		{130, "signal"},
		{143, "signal"},
	}
	for _, tc := range testCases {
		if got := exitCategory(tc.code); got != tc.want {
			t.Errorf("exitCategory(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestCollector_Summary(t *testing.T) {
	c, _ := newTestCollector()

	for _, code := range []int{0, 0, 3} {
		c.InvocationStarted(gitInv)
		c.ChunkCaptured(gitInv, process.Stderr, 1)
		c.InvocationFinished(gitInv, process.Outcome{ExitCode: code, Duration: time.Duration(code+1) * time.Second})
	}

	s := c.GenerateSummary()
	if s.TotalStarts != 3 {
		t.Errorf("TotalStarts = %d, want 3", s.TotalStarts)
	}
	if s.ExitCodes[0] != 2 || s.ExitCodes[3] != 1 {
		t.Errorf("ExitCodes = %v", s.ExitCodes)
	}
	if s.StderrChunks != 3 || s.StdoutChunks != 0 {
		t.Errorf("chunks stdout=%d stderr=%d", s.StdoutChunks, s.StderrChunks)
	}
	if s.DurationMax != 4*time.Second {
		t.Errorf("DurationMax = %v, want 4s", s.DurationMax)
	}

	// Summary is a copy.
	s.ExitCodes[0] = 100
	if c.GenerateSummary().ExitCodes[0] != 2 {
		t.Error("GenerateSummary leaked its internal map")
	}
}

func TestCollector_WithRunner(t *testing.T) {
	c, registry := newTestCollector()

	r, err := process.New("sh", `-c "echo out; echo err >&2; exit 2"`, t.TempDir(), process.WithObserver(c))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := testutil.ToFloat64(c.exitCodesTotal.WithLabelValues("sh", "2")); got != 1 {
		t.Errorf("exit_codes{sh,2} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.chunksTotal.WithLabelValues("sh", "stderr")); got != 1 {
		t.Errorf("chunks{sh,stderr} = %v, want 1", got)
	}

	problems, err := testutil.GatherAndLint(registry)
	if err != nil {
		t.Fatalf("GatherAndLint error = %v", err)
	}
	for _, p := range problems {
		t.Errorf("lint: %s: %s", p.Metric, p.Text)
	}
}

// =============================================================================
// Tests: Server
// =============================================================================

func TestServer_Endpoints(t *testing.T) {
	c, registry := newTestCollector()
	c.InvocationStarted(gitInv)

	srv := NewServer("127.0.0.1:0", registry, newTestLogger())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, path := range []string{"/health", "/healthz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
			t.Errorf("GET %s = %d %q", path, resp.StatusCode, body)
		}
	}

	families, err := Scrape(context.Background(), ts.Client(), ts.URL+"/metrics")
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	got := CounterValue(families, "woodpecker_invocations_started_total", map[string]string{"executable": "git"})
	if got != 1 {
		t.Errorf("started counter = %v, want 1", got)
	}
	if got := CounterValue(families, "woodpecker_invocations_started_total", map[string]string{"executable": "make"}); got != 0 {
		t.Errorf("started counter for make = %v, want 0", got)
	}
}

func TestScrape_Errors(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	if _, err := Scrape(context.Background(), nil, ts.URL+"/metrics"); err == nil {
		t.Error("Scrape() of a 404 should fail")
	}
	if _, err := ParseFamilies(strings.NewReader("not a metric line {")); err == nil {
		t.Error("ParseFamilies() should reject malformed input")
	}
}

func TestParseFamilies(t *testing.T) {
	body := `# TYPE woodpecker_exits_total counter
woodpecker_exits_total{executable="git",result="success"} 2
woodpecker_exits_total{executable="git",result="failure"} 1
woodpecker_exits_total{executable="sh",result="success"} 4
`
	families, err := ParseFamilies(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseFamilies() error = %v", err)
	}
	if got := CounterValue(families, "woodpecker_exits_total", map[string]string{"executable": "git"}); got != 3 {
		t.Errorf("git exits = %v, want 3", got)
	}
	if got := CounterValue(families, "woodpecker_exits_total", nil); got != 7 {
		t.Errorf("all exits = %v, want 7", got)
	}
	if got := CounterValue(families, "missing_total", nil); got != 0 {
		t.Errorf("missing family = %v, want 0", got)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	srv := NewServer("127.0.0.1:0", prometheus.NewRegistry(), newTestLogger())
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if strings.HasSuffix(srv.Addr(), ":0") {
		t.Errorf("Addr() = %q, want the bound port", srv.Addr())
	}

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
