package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

const rule = "═══════════════════════════════════════════════════════════════════════════════\n"

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// CommandLine is the command as it was invoked.
	CommandLine string

	// WorkingDir is where it ran.
	WorkingDir string

	// RecentLines are the last lines of output, shown on failure.
	RecentLines []string

	// MetricsAddr is the Prometheus metrics endpoint address, if served.
	MetricsAddr string
}

// FormatExitSummary formats the outcome of one invocation for display at
// program exit. profile may be nil.
func FormatExitSummary(out process.Outcome, profile *Profile, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("                           woodpecker Exit Summary\n")
	b.WriteString(rule + "\n")

	fmt.Fprintf(&b, "Command:                %s\n", cfg.CommandLine)
	if cfg.WorkingDir != "" {
		fmt.Fprintf(&b, "Working Directory:      %s\n", cfg.WorkingDir)
	}
	fmt.Fprintf(&b, "PID:                    %d\n", out.Pid)
	fmt.Fprintf(&b, "Run Duration:           %s (%s)\n", FormatDuration(out.Duration), FormatMs(out.Duration))
	fmt.Fprintf(&b, "Exit Code:              %d %s\n\n", out.ExitCode, exitCodeLabel(out.ExitCode))

	if profile != nil {
		b.WriteString("Output                    Lines       Bytes     Gap p50     Gap p99     Gap max\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		for _, stream := range []process.Stream{process.Stdout, process.Stderr} {
			sp := profile.Stream(stream)
			fmt.Fprintf(&b, "  %-20s %8s %11s %11s %11s %11s\n",
				stream.String(),
				FormatNumber(sp.Chunks),
				FormatBytes(sp.Bytes),
				FormatMs(sp.GapP50),
				FormatMs(sp.GapP99),
				FormatMs(sp.GapMax),
			)
		}
		b.WriteString("\n")
	}

	if !out.Success() && len(cfg.RecentLines) > 0 {
		b.WriteString("Last output:\n")
		for _, line := range cfg.RecentLines {
			fmt.Fprintf(&b, "  │ %s\n", line)
		}
		b.WriteString("\n")
	}

	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}

	b.WriteString(rule)
	return b.String()
}

// exitCodeLabel returns a human-readable label for common exit codes.
func exitCodeLabel(code int) string {
	switch code {
	case 0:
		return "(clean)"
	case 1:
		return "(error)"
	case 126:
		return "(not executable)"
	case 127:
		return "(command not found)"
	case 130:
		return "(SIGINT)"
	case 137:
		return "(SIGKILL)"
	case 143:
		return "(SIGTERM)"
	default:
		return ""
	}
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatBytes formats bytes with KB/MB/GB suffixes.
func FormatBytes(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.2f GB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.2f MB", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.2f KB", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		// Sub-millisecond, show microseconds
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}
