package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

const (
	// MaxLineLength is the maximum length of a single log line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the maximum number of recent lines kept for the exit summary.
	MaxBufferedLines = 100
)

// OutputHandler logs a process's output as it arrives and keeps the most
// recent lines for the exit summary. Subscribe it with Runner.OnOutput(h.Handle).
type OutputHandler struct {
	logger  *slog.Logger
	verbose bool

	// Circular buffer for recent lines
	buffer []string
	bufIdx int
	mu     sync.Mutex
}

// NewOutputHandler creates a handler that logs through logger. In
// non-verbose mode only lines that look like problems are logged.
func NewOutputHandler(logger *slog.Logger, verbose bool) *OutputHandler {
	return &OutputHandler{
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// Handle processes one chunk of output.
func (h *OutputHandler) Handle(c process.Chunk) {
	line := c.Text
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.mu.Unlock()

	level := classifyLine(c.Stream, line)
	if !h.verbose && level == slog.LevelDebug {
		return
	}
	h.logger.Log(context.Background(), level, "process_output",
		"stream", c.Stream.String(),
		"line", line,
	)
}

// classifyLine determines the log level for a line based on content.
func classifyLine(stream process.Stream, line string) slog.Level {
	lower := strings.ToLower(line)

	if strings.HasPrefix(lower, "fatal:") ||
		strings.HasPrefix(lower, "error:") ||
		strings.Contains(lower, "permission denied") {
		return slog.LevelWarn
	}

	if stream == process.Stderr &&
		(strings.HasPrefix(lower, "warning:") || strings.Contains(lower, "failed")) {
		return slog.LevelWarn
	}

	return slog.LevelDebug
}

// RecentLines returns up to n of the most recent lines, oldest first.
func (h *OutputHandler) RecentLines(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}

	lines := make([]string, 0, n)

	// Read from circular buffer in order
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		if h.buffer[idx] != "" {
			lines = append(lines, h.buffer[idx])
		}
	}

	return lines
}
