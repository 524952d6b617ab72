package process

import (
	"strings"
	"sync"
)

// LineSeparator terminates every chunk appended to a MessageLog.
const LineSeparator = "\n"

// MessageLog is the append-only record of everything a process printed.
// It is safe for concurrent use.
type MessageLog struct {
	mu     sync.Mutex
	b      strings.Builder
	chunks int
}

// Append adds a chunk followed by LineSeparator.
func (l *MessageLog) Append(chunk string) {
	l.mu.Lock()
	l.b.WriteString(chunk)
	l.b.WriteString(LineSeparator)
	l.chunks++
	l.mu.Unlock()
}

// String returns a snapshot of the log.
func (l *MessageLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

// Chunks returns the number of chunks appended so far.
func (l *MessageLog) Chunks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chunks
}
