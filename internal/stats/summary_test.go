package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

func TestFormatExitSummary(t *testing.T) {
	p := NewProfile()
	p.Observe(process.Chunk{Stream: process.Stdout, Text: "hello"})

	out := process.Outcome{ExitCode: 0, Pid: 4242, Duration: 1500 * time.Millisecond}
	s := FormatExitSummary(out, p, SummaryConfig{
		CommandLine: "git status",
		WorkingDir:  "/tmp/repo",
		MetricsAddr: "127.0.0.1:17091",
		RecentLines: []string{"should not appear"},
	})

	for _, want := range []string{
		"woodpecker Exit Summary",
		"git status",
		"/tmp/repo",
		"4242",
		"00:00:01",
		"1500 ms",
		"Exit Code:              0 (clean)",
		"stdout",
		"stderr",
		"http://127.0.0.1:17091/metrics",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "should not appear") {
		t.Error("recent lines shown for a successful run")
	}
}

func TestFormatExitSummary_FailureShowsRecentLines(t *testing.T) {
	out := process.Outcome{ExitCode: 128}
	s := FormatExitSummary(out, nil, SummaryConfig{
		CommandLine: "git pull",
		RecentLines: []string{"fatal: not a git repository"},
	})

	if !strings.Contains(s, "│ fatal: not a git repository") {
		t.Errorf("expected recent lines in summary:\n%s", s)
	}
	if strings.Contains(s, "Gap p50") {
		t.Error("profile table rendered without a profile")
	}
	if strings.Contains(s, "Working Directory") {
		t.Error("empty working directory rendered")
	}
}

func TestExitCodeLabel(t *testing.T) {
	testCases := []struct {
		code int
		want string
	}{
		{0, "(clean)"},
		{1, "(error)"},
		{126, "(not executable)"},
		{127, "(command not found)"},
		{130, "(SIGINT)"},
		{137, "(SIGKILL)"},
		{143, "(SIGTERM)"},
		{2, ""},
		{-1, ""},
	}
	for _, tc := range testCases {
		if got := exitCodeLabel(tc.code); got != tc.want {
			t.Errorf("exitCodeLabel(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	testCases := []struct {
		name string
		got  string
		want string
	}{
		{"duration", FormatDuration(3*time.Hour + 25*time.Minute + 7*time.Second), "03:25:07"},
		{"duration zero", FormatDuration(0), "00:00:00"},
		{"number small", FormatNumber(999), "999"},
		{"number K", FormatNumber(1500), "1.5K"},
		{"number M", FormatNumber(2_500_000), "2.5M"},
		{"bytes", FormatBytes(512), "512 B"},
		{"bytes KB", FormatBytes(1500), "1.50 KB"},
		{"bytes MB", FormatBytes(2_000_000), "2.00 MB"},
		{"bytes GB", FormatBytes(3_000_000_000), "3.00 GB"},
		{"ms", FormatMs(250 * time.Millisecond), "250 ms"},
		{"µs", FormatMs(250 * time.Microsecond), "250 µs"},
		{"ms zero", FormatMs(0), "0 ms"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}
