package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
	"github.com/randomizedcoder/go-woodpecker/internal/stats"
)

// DefaultMaxLines is how many output lines the dashboard keeps.
const DefaultMaxLines = 500

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the elapsed time.
type TickMsg time.Time

// StartedMsg reports that the process is running.
type StartedMsg struct {
	Pid int
}

// OutputMsg carries one line of process output.
type OutputMsg struct {
	Chunk process.Chunk
}

// ExitMsg reports the outcome of the invocation.
type ExitMsg struct {
	Outcome process.Outcome
}

// LaunchFailedMsg reports that the process could not be started.
type LaunchFailedMsg struct {
	Err error
}

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// ProfileSource provides per-stream output statistics.
type ProfileSource interface {
	Stream(process.Stream) stats.StreamProfile
}

type line struct {
	stream process.Stream
	text   string
}

// Model represents the TUI state.
type Model struct {
	// Configuration
	commandLine string
	workingDir  string
	metricsAddr string
	maxLines    int

	// Current state
	lines      []line
	pid        int
	running    bool
	exited     bool
	outcome    process.Outcome
	launchErr  error
	startTime  time.Time
	endTime    time.Time
	stderrOnly bool

	profile ProfileSource

	// Display options
	width  int
	height int

	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	CommandLine string
	WorkingDir  string
	MetricsAddr string
	MaxLines    int
	Profile     ProfileSource
}

// New creates a new TUI model.
func New(cfg Config) Model {
	maxLines := cfg.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return Model{
		commandLine: cfg.CommandLine,
		workingDir:  cfg.WorkingDir,
		metricsAddr: cfg.MetricsAddr,
		maxLines:    maxLines,
		profile:     cfg.Profile,
		pid:         -1,
		startTime:   time.Now(),
		width:       80,
		height:      24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "e":
			m.stderrOnly = !m.stderrOnly
			return m, nil
		case "c":
			m.lines = nil
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if m.exited || m.launchErr != nil {
			return m, nil
		}
		return m, tickCmd()

	case StartedMsg:
		m.pid = msg.Pid
		m.running = true
		m.startTime = time.Now()
		return m, nil

	case OutputMsg:
		m.lines = append(m.lines, line{stream: msg.Chunk.Stream, text: msg.Chunk.Text})
		if over := len(m.lines) - m.maxLines; over > 0 {
			m.lines = append(m.lines[:0:0], m.lines[over:]...)
		}
		return m, nil

	case ExitMsg:
		m.running = false
		m.exited = true
		m.outcome = msg.Outcome
		m.pid = msg.Outcome.Pid
		m.endTime = time.Now()
		return m, nil

	case LaunchFailedMsg:
		m.running = false
		m.launchErr = msg.Err
		m.endTime = time.Now()
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns how long the process has been running, or how long it ran.
func (m Model) Elapsed() time.Duration {
	if m.exited {
		return m.outcome.Duration
	}
	if !m.endTime.IsZero() {
		return m.endTime.Sub(m.startTime)
	}
	return time.Since(m.startTime)
}

// Exited reports whether an ExitMsg has been received.
func (m Model) Exited() bool {
	return m.exited
}

// Outcome returns the outcome from the ExitMsg, if any.
func (m Model) Outcome() process.Outcome {
	return m.outcome
}

// LineCount returns the number of buffered output lines.
func (m Model) LineCount() int {
	return len(m.lines)
}

// visibleLines returns the buffered lines that pass the current filter,
// newest last, limited to n.
func (m Model) visibleLines(n int) []line {
	var out []line
	for _, l := range m.lines {
		if m.stderrOnly && l.stream != process.Stderr {
			continue
		}
		out = append(out, l)
	}
	if n >= 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// =============================================================================
// Helper for external use
// =============================================================================

// SendOutput forwards a chunk to the TUI. Safe to use as a Runner output
// subscriber.
func SendOutput(p *tea.Program, c process.Chunk) {
	if p != nil {
		p.Send(OutputMsg{Chunk: c})
	}
}

// SendExit forwards the outcome to the TUI.
func SendExit(p *tea.Program, out process.Outcome) {
	if p != nil {
		p.Send(ExitMsg{Outcome: out})
	}
}

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}
