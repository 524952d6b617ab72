package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
	"github.com/randomizedcoder/go-woodpecker/internal/stats"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(k string) tea.KeyMsg {
	switch k {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func output(stream process.Stream, text string) OutputMsg {
	return OutputMsg{Chunk: process.Chunk{Stream: stream, Text: text}}
}

// =============================================================================
// Tests: New
// =============================================================================

func TestNew(t *testing.T) {
	model := New(Config{
		CommandLine: "git status",
		WorkingDir:  "/tmp/repo",
		MetricsAddr: "localhost:17091",
	})

	if model.commandLine != "git status" {
		t.Errorf("commandLine = %s", model.commandLine)
	}
	if model.maxLines != DefaultMaxLines {
		t.Errorf("maxLines = %d, want %d", model.maxLines, DefaultMaxLines)
	}
	if model.pid != -1 {
		t.Errorf("pid = %d, want -1", model.pid)
	}
	if model.width != 80 || model.height != 24 {
		t.Errorf("size = %dx%d, want 80x24", model.width, model.height)
	}
}

func TestModel_Init(t *testing.T) {
	if New(Config{}).Init() == nil {
		t.Error("Init() returned nil cmd")
	}
}

// =============================================================================
// Tests: Update - Key Messages
// =============================================================================

func TestModel_Update_QuitKeys(t *testing.T) {
	tests := []struct {
		key      string
		wantQuit bool
	}{
		{"q", true},
		{"ctrl+c", true},
		{"esc", true},
		{"e", false},
		{"c", false},
		{"x", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, cmd := update(t, New(Config{}), key(tt.key))

			if m.quitting != tt.wantQuit {
				t.Errorf("quitting = %v, want %v", m.quitting, tt.wantQuit)
			}
			if tt.wantQuit && cmd == nil {
				t.Error("expected tea.Quit cmd")
			}
		})
	}
}

func TestModel_Update_ToggleStderrOnly(t *testing.T) {
	m := New(Config{})
	m, _ = update(t, m, output(process.Stdout, "out-line"))
	m, _ = update(t, m, output(process.Stderr, "err-line"))

	m, _ = update(t, m, key("e"))
	if !m.stderrOnly {
		t.Fatal("stderrOnly should be true after pressing 'e'")
	}
	view := m.View()
	if strings.Contains(view, "out-line") || !strings.Contains(view, "err-line") {
		t.Errorf("stderr-only view wrong:\n%s", view)
	}

	m, _ = update(t, m, key("e"))
	if m.stderrOnly {
		t.Error("stderrOnly should be false after pressing 'e' again")
	}
}

func TestModel_Update_Clear(t *testing.T) {
	m := New(Config{})
	m, _ = update(t, m, output(process.Stdout, "a"))
	m, _ = update(t, m, key("c"))
	if m.LineCount() != 0 {
		t.Errorf("LineCount = %d after clear", m.LineCount())
	}
}

// =============================================================================
// Tests: Update - Process Messages
// =============================================================================

func TestModel_Update_WindowSize(t *testing.T) {
	m, _ := update(t, New(Config{}), tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
}

func TestModel_Update_Lifecycle(t *testing.T) {
	m := New(Config{})

	m, _ = update(t, m, StartedMsg{Pid: 4321})
	if !m.running || m.pid != 4321 {
		t.Errorf("after StartedMsg: running=%v pid=%d", m.running, m.pid)
	}
	if !strings.Contains(m.View(), "Running") {
		t.Error("view does not show running state")
	}

	out := process.Outcome{ExitCode: 3, Pid: 4321, Duration: 2 * time.Second}
	m, _ = update(t, m, ExitMsg{Outcome: out})
	if m.running || !m.Exited() {
		t.Error("model should be exited")
	}
	if m.Outcome() != out {
		t.Errorf("Outcome = %+v", m.Outcome())
	}
	if m.Elapsed() != 2*time.Second {
		t.Errorf("Elapsed = %v, want the outcome duration", m.Elapsed())
	}
	if !strings.Contains(m.View(), "Exited 3") {
		t.Errorf("view does not show exit code:\n%s", m.View())
	}
}

func TestModel_Update_LaunchFailed(t *testing.T) {
	m, _ := update(t, New(Config{}), LaunchFailedMsg{Err: errors.New("no such file")})

	view := m.View()
	if !strings.Contains(view, "Launch failed") || !strings.Contains(view, "no such file") {
		t.Errorf("view does not show launch failure:\n%s", view)
	}
}

func TestModel_Update_TickStopsAfterExit(t *testing.T) {
	m := New(Config{})
	if _, cmd := update(t, m, TickMsg(time.Now())); cmd == nil {
		t.Error("tick should reschedule while running")
	}

	m, _ = update(t, m, ExitMsg{})
	if _, cmd := update(t, m, TickMsg(time.Now())); cmd != nil {
		t.Error("tick should stop after exit")
	}
}

func TestModel_Update_OutputBounded(t *testing.T) {
	m := New(Config{MaxLines: 10})
	for i := 0; i < 25; i++ {
		m, _ = update(t, m, output(process.Stdout, fmt.Sprintf("line-%d", i)))
	}

	if m.LineCount() != 10 {
		t.Fatalf("LineCount = %d, want 10", m.LineCount())
	}
	lines := m.visibleLines(-1)
	if lines[0].text != "line-15" || lines[9].text != "line-24" {
		t.Errorf("kept %q..%q, want line-15..line-24", lines[0].text, lines[9].text)
	}
}

func TestModel_Update_QuitMsg(t *testing.T) {
	m, cmd := update(t, New(Config{}), QuitMsg{})
	if !m.quitting || cmd == nil {
		t.Error("QuitMsg should quit")
	}
	if m.View() != "" {
		t.Error("View should be empty after quitting")
	}
}

// =============================================================================
// Tests: View
// =============================================================================

type fixedProfile map[process.Stream]stats.StreamProfile

func (f fixedProfile) Stream(s process.Stream) stats.StreamProfile { return f[s] }

func TestModel_View(t *testing.T) {
	m := New(Config{
		CommandLine: "git pull origin",
		WorkingDir:  "/tmp/repo",
		MetricsAddr: "127.0.0.1:17091",
		Profile: fixedProfile{
			process.Stdout: {Chunks: 7},
			process.Stderr: {Chunks: 2},
		},
	})
	m, _ = update(t, m, output(process.Stdout, "Already up to date."))

	view := m.View()
	for _, want := range []string{
		"woodpecker",
		"git pull origin",
		"/tmp/repo",
		"Already up to date.",
		"7 stdout, 2 stderr",
		"127.0.0.1:17091",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_View_NoOutput(t *testing.T) {
	if !strings.Contains(New(Config{}).View(), "(no output yet)") {
		t.Error("empty view should say there is no output")
	}
}

func TestModel_View_SmallTerminal(t *testing.T) {
	m, _ := update(t, New(Config{CommandLine: strings.Repeat("x", 300)}), tea.WindowSizeMsg{Width: 20, Height: 5})
	m, _ = update(t, m, output(process.Stdout, strings.Repeat("y", 300)))
	if m.View() == "" {
		t.Error("View should render on a small terminal")
	}
}

// =============================================================================
// Tests: Observer
// =============================================================================

func TestObserver_NilProgram(t *testing.T) {
	o := NewObserver(nil, func() int { return 1 })
	inv := process.Invocation{Path: "git"}

	// None of these may panic without a program.
	o.InvocationStarted(inv)
	o.ChunkCaptured(inv, process.Stdout, 3)
	o.InvocationFinished(inv, process.Outcome{})
	o.InvocationFailed(inv, errors.New("x"))

	SendOutput(nil, process.Chunk{})
	SendExit(nil, process.Outcome{})
	SendQuit(nil)
}
