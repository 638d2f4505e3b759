package ollama

import (
	"context"
	"sync/atomic"
)

// Snapshot is the immutable, atomically published state of one generation.
// Text grows monotonically; once Finished or Err is set no further snapshot
// is published.
type Snapshot struct {
	Text       string
	Finished   bool
	Err        bool
	StatusCode int
	Detail     string
}

// Terminal reports whether the generation reached a final state.
func (s Snapshot) Terminal() bool { return s.Finished || s.Err }

// Stream is the handle to an in-flight generation. Exactly one goroutine
// (the network reader) publishes snapshots; any number may read them.
type Stream struct {
	snap atomic.Pointer[Snapshot]
	done chan struct{}
}

func newStream() *Stream {
	st := &Stream{done: make(chan struct{})}
	st.snap.Store(&Snapshot{})
	return st
}

// Snapshot returns the latest published state. Never blocks.
func (st *Stream) Snapshot() Snapshot {
	return *st.snap.Load()
}

// Wait blocks until the reader goroutine has finished, so the handle can be
// discarded without leaking background work. Returns the final snapshot.
func (st *Stream) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-st.done:
		return st.Snapshot(), nil
	case <-ctx.Done():
		return st.Snapshot(), ctx.Err()
	}
}

func (st *Stream) publish(text string) {
	st.snap.Store(&Snapshot{Text: text})
}

func (st *Stream) finish(text string) {
	st.snap.Store(&Snapshot{Text: text, Finished: true})
}

func (st *Stream) fail(status int, detail string) {
	st.failWithText("", status, detail)
}

func (st *Stream) failWithText(text string, status int, detail string) {
	st.snap.Store(&Snapshot{Text: text, Err: true, StatusCode: status, Detail: detail})
}
