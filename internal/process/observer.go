package process

// Observer receives lifecycle events from a Runner. Implementations must be
// safe for concurrent use; ChunkCaptured is called from the stream readers.
type Observer interface {
	InvocationStarted(inv Invocation)
	ChunkCaptured(inv Invocation, stream Stream, size int)
	InvocationFinished(inv Invocation, out Outcome)
	InvocationFailed(inv Invocation, err error)
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) InvocationStarted(Invocation) {}
func (NoopObserver) ChunkCaptured(Invocation, Stream, int) {}
func (NoopObserver) InvocationFinished(Invocation, Outcome) {}
func (NoopObserver) InvocationFailed(Invocation, error) {}

var _ Observer = NoopObserver{}

// MultiObserver fans each event out to every observer in order.
type MultiObserver []Observer

func (m MultiObserver) InvocationStarted(inv Invocation) {
	for _, o := range m {
		o.InvocationStarted(inv)
	}
}

func (m MultiObserver) ChunkCaptured(inv Invocation, stream Stream, size int) {
	for _, o := range m {
		o.ChunkCaptured(inv, stream, size)
	}
}

func (m MultiObserver) InvocationFinished(inv Invocation, out Outcome) {
	for _, o := range m {
		o.InvocationFinished(inv, out)
	}
}

func (m MultiObserver) InvocationFailed(inv Invocation, err error) {
	for _, o := range m {
		o.InvocationFailed(inv, err)
	}
}

var _ Observer = MultiObserver{}
