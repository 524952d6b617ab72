package process

import (
	"strings"
	"sync"
	"testing"
)

func TestMessageLog_Append(t *testing.T) {
	var l MessageLog
	if l.String() != "" || l.Chunks() != 0 {
		t.Fatal("zero MessageLog should be empty")
	}

	l.Append("one")
	l.Append("")
	l.Append("three")

	if got := l.String(); got != "one\n\nthree\n" {
		t.Errorf("String() = %q", got)
	}
	if l.Chunks() != 3 {
		t.Errorf("Chunks() = %d, want 3", l.Chunks())
	}
}

func TestMessageLog_ConcurrentAppend(t *testing.T) {
	var l MessageLog
	var wg sync.WaitGroup

	const writers, perWriter = 8, 200
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				l.Append("chunk")
			}
		}()
	}
	wg.Wait()

	if l.Chunks() != writers*perWriter {
		t.Errorf("Chunks() = %d, want %d", l.Chunks(), writers*perWriter)
	}
	// Every chunk is whole: no interleaved partial writes.
	for _, line := range strings.Split(strings.TrimSuffix(l.String(), LineSeparator), LineSeparator) {
		if line != "chunk" {
			t.Fatalf("found corrupted chunk %q", line)
		}
	}
}
