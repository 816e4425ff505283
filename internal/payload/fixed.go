// Package payload implements the single-producer/single-consumer handoff
// channels described in the core design: a Fixed slot for one value and a
// Stream queue for an unbounded sequence of chunks. Both wake the consumer
// on every state transition that could enable progress and are safe for
// exactly one producer and one consumer goroutine pair, never more.
package payload

import (
	"errors"
	"sync"
)

// ErrUnexpectedEOF is surfaced to a Fixed/Stream consumer when the
// producer side is dropped (its I/O task ended) before a value or an
// explicit EOF/error was fed.
var ErrUnexpectedEOF = errors.New("payload: unexpected eof")

// Fixed holds at most one value: either a successful byte slice or an
// error. The consumer suspends until it is filled. Only the first Feed
// has effect; later calls are no-ops.
type Fixed struct {
	mu    sync.Mutex
	done  bool
	data  []byte
	err   error
	ready chan struct{}
}

// NewFixed returns an unfilled Fixed slot.
func NewFixed() *Fixed {
	return &Fixed{ready: make(chan struct{})}
}

// Feed delivers the single value. Only the first call has effect.
func (f *Fixed) Feed(data []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.data, f.err, f.done = data, err, true
	close(f.ready)
}

// DropProducer signals that the producer side terminated without ever
// calling Feed. A consumer still waiting observes ErrUnexpectedEOF.
func (f *Fixed) DropProducer() {
	f.Feed(nil, ErrUnexpectedEOF)
}

// Wait blocks until Feed (or DropProducer) has been called, then returns
// the delivered value. Calling Wait more than once returns the same
// result every time.
func (f *Fixed) Wait() ([]byte, error) {
	<-f.ready
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.err
}

// Ready returns a channel closed once a value has been fed, for use in a
// select alongside cancellation.
func (f *Fixed) Ready() <-chan struct{} { return f.ready }
