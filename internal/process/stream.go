package process

import (
	"bufio"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Stream identifies which standard stream a chunk came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Chunk is one line of output as received from the process, without its
// line terminator.
type Chunk struct {
	Stream Stream
	Text   string
	At     time.Time
}

const (
	initialLineBuffer = 64 * 1024
	maxLineSize       = 1024 * 1024
)

// streamReader reads lines from one of the child's pipes and hands each one
// to deliver, in the order the child wrote them.
type streamReader struct {
	stream  Stream
	reader  io.Reader
	deliver func(Chunk)
	logger  *slog.Logger

	bytesRead atomic.Int64
	linesRead atomic.Int64
}

func newStreamReader(stream Stream, r io.Reader, enc encoding.Encoding, deliver func(Chunk), logger *slog.Logger) *streamReader {
	if enc != nil {
		// Invalid input is replaced with U+FFFD rather than failing the read.
		r = transform.NewReader(r, enc.NewDecoder())
	}
	return &streamReader{
		stream:  stream,
		reader:  r,
		deliver: deliver,
		logger:  logger,
	}
}

// run reads until EOF. The pipe is always drained to EOF, even after a read
// error, so the child never blocks on a full pipe.
func (s *streamReader) run() {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		s.bytesRead.Add(int64(len(line) + 1))
		s.linesRead.Add(1)
		s.deliver(Chunk{Stream: s.stream, Text: line, At: time.Now()})
	}

	if err := scanner.Err(); err != nil {
		s.logger.Warn("stream_read_failed",
			"stream", s.stream.String(),
			"lines_read", s.linesRead.Load(),
			"error", err,
		)
		n, _ := io.Copy(io.Discard, s.reader)
		s.bytesRead.Add(n)
	}
}

// Stats returns (bytesRead, linesRead).
func (s *streamReader) Stats() (bytesRead, linesRead int64) {
	return s.bytesRead.Load(), s.linesRead.Load()
}
