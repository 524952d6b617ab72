package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
	"github.com/randomizedcoder/go-woodpecker/internal/stats"
)

// Rows used by everything except the output pane.
const chromeHeight = 14

// =============================================================================
// Main View Rendering
// =============================================================================

func (m Model) renderView() string {
	sections := []string{
		m.renderHeader(),
		m.renderInvocation(),
		m.renderOutput(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) statusLabel() string {
	switch {
	case m.launchErr != nil:
		return statusError.Render("● Launch failed")
	case m.exited:
		return GetExitLabel(m.outcome.ExitCode)
	case m.running:
		return statusInfo.Render("● Running")
	default:
		return mutedStyle.Render("● Starting")
	}
}

func (m Model) renderHeader() string {
	header := fmt.Sprintf(
		" woodpecker │ %s │ Elapsed: %s ",
		m.statusLabel(),
		stats.FormatDuration(m.Elapsed()),
	)
	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Invocation Section
// =============================================================================

func (m Model) renderInvocation() string {
	inner := m.width - 4
	rows := []string{
		RenderKeyValue("Command", truncate(m.commandLine, inner-12)),
	}
	if m.workingDir != "" {
		rows = append(rows, RenderKeyValue("Directory", truncate(m.workingDir, inner-12)))
	}

	pid := "-"
	if m.pid > 0 {
		pid = fmt.Sprintf("%d", m.pid)
	}
	rows = append(rows, RenderKeyValue("PID", pid))

	if m.profile != nil {
		out := m.profile.Stream(process.Stdout)
		errs := m.profile.Stream(process.Stderr)
		rows = append(rows, RenderKeyValue("Lines",
			fmt.Sprintf("%s stdout, %s stderr", stats.FormatNumber(out.Chunks), stats.FormatNumber(errs.Chunks))))
	}
	if m.launchErr != nil {
		rows = append(rows, statusError.Render(truncate(m.launchErr.Error(), inner)))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// =============================================================================
// Output Section
// =============================================================================

func (m Model) renderOutput() string {
	title := "Output"
	if m.stderrOnly {
		title = "Output (stderr only)"
	}

	visible := m.height - chromeHeight
	if visible < 3 {
		visible = 3
	}
	lines := m.visibleLines(visible)

	var b strings.Builder
	if len(lines) == 0 {
		b.WriteString(dimStyle.Render("(no output yet)"))
	}
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		text := truncate(l.text, m.width-6)
		if l.stream == process.Stderr {
			b.WriteString(stderrStyle.Render(text))
		} else {
			b.WriteString(stdoutStyle.Render(text))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render(title),
		b.String(),
	)
	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	keys := "q quit • e toggle stderr • c clear"
	if m.metricsAddr != "" {
		keys += " • metrics http://" + m.metricsAddr + "/metrics"
	}
	return footerStyle.Render(keys)
}
