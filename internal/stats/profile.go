// Package stats profiles a process's output and formats the exit summary.
package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// StreamProfile summarizes one output stream.
type StreamProfile struct {
	Chunks int64
	Bytes  int64

	// Gaps between consecutive chunks on this stream.
	GapP50 time.Duration
	GapP95 time.Duration
	GapP99 time.Duration
	GapMax time.Duration

	First time.Time
	Last  time.Time
}

type streamState struct {
	chunks int64
	bytes  int64
	first  time.Time
	last   time.Time
	gapMax time.Duration
	gaps   *tdigest.TDigest // TDigest is not thread-safe
}

// Profile records when output chunks arrive. Subscribe it with
// Runner.OnOutput(p.Observe). It is safe for concurrent use.
type Profile struct {
	mu      sync.Mutex
	streams map[process.Stream]*streamState
}

// NewProfile creates an empty profile.
func NewProfile() *Profile {
	return &Profile{
		streams: make(map[process.Stream]*streamState),
	}
}

// Observe records one chunk.
func (p *Profile) Observe(c process.Chunk) {
	at := c.At
	if at.IsZero() {
		at = time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.streams[c.Stream]
	if !ok {
		s = &streamState{
			gaps:  tdigest.NewWithCompression(100),
			first: at,
		}
		p.streams[c.Stream] = s
	} else {
		gap := at.Sub(s.last)
		if gap < 0 {
			gap = 0
		}
		s.gaps.Add(float64(gap.Nanoseconds()), 1)
		if gap > s.gapMax {
			s.gapMax = gap
		}
	}
	s.chunks++
	s.bytes += int64(len(c.Text))
	s.last = at
}

// Stream returns the profile of one stream. The zero value is returned for
// a stream that produced nothing.
func (p *Profile) Stream(stream process.Stream) StreamProfile {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.streams[stream]
	if !ok {
		return StreamProfile{}
	}

	sp := StreamProfile{
		Chunks: s.chunks,
		Bytes:  s.bytes,
		GapMax: s.gapMax,
		First:  s.first,
		Last:   s.last,
	}
	if s.chunks > 1 {
		sp.GapP50 = time.Duration(s.gaps.Quantile(0.50))
		sp.GapP95 = time.Duration(s.gaps.Quantile(0.95))
		sp.GapP99 = time.Duration(s.gaps.Quantile(0.99))
	}
	return sp
}
