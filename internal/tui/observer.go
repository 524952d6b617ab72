package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// Observer forwards Runner lifecycle events to a running program. Output
// lines travel separately through Runner.OnOutput and SendOutput.
type Observer struct {
	program *tea.Program
	pid     func() int
}

// NewObserver returns an Observer that sends to p. pid is called when the
// process starts; it is usually Runner.Pid.
func NewObserver(p *tea.Program, pid func() int) *Observer {
	return &Observer{program: p, pid: pid}
}

func (o *Observer) send(msg tea.Msg) {
	if o.program != nil {
		o.program.Send(msg)
	}
}

func (o *Observer) InvocationStarted(process.Invocation) {
	pid := -1
	if o.pid != nil {
		pid = o.pid()
	}
	o.send(StartedMsg{Pid: pid})
}

func (o *Observer) ChunkCaptured(process.Invocation, process.Stream, int) {}

func (o *Observer) InvocationFinished(_ process.Invocation, out process.Outcome) {
	o.send(ExitMsg{Outcome: out})
}

func (o *Observer) InvocationFailed(_ process.Invocation, err error) {
	o.send(LaunchFailedMsg{Err: err})
}

var _ process.Observer = (*Observer)(nil)
