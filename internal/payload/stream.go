package payload

import "sync"

// Stream is a FIFO queue of chunks plus an EOF flag and at most one queued
// error, forming the single-producer/single-consumer handoff for streaming
// bodies. feed_data(nil) marks EOF; feed_error appends an error item that
// is surfaced to the consumer in order, after any chunks queued before it.
type Stream struct {
	mu     sync.Mutex
	chunks [][]byte
	eof    bool
	err    error // queued error, surfaced once chunks drain
	wake   chan struct{}
}

// NewStream returns an empty, not-yet-EOF Stream.
func NewStream() *Stream {
	return &Stream{wake: make(chan struct{}, 1)}
}

func (s *Stream) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// FeedData appends a chunk to the queue. A nil data with no prior EOF
// marks EOF instead of a chunk.
func (s *Stream) FeedData(data []byte) {
	s.mu.Lock()
	if data == nil {
		s.eof = true
	} else {
		s.chunks = append(s.chunks, data)
	}
	s.mu.Unlock()
	s.notify()
}

// FeedError queues an error to be surfaced after any chunks already
// queued are consumed.
func (s *Stream) FeedError(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.notify()
}

// DropProducer signals producer termination without an explicit EOF; the
// consumer observes ErrUnexpectedEOF once the queue drains, unless an
// explicit EOF or error was already queued.
func (s *Stream) DropProducer() {
	s.mu.Lock()
	already := s.eof || s.err != nil
	s.mu.Unlock()
	if !already {
		s.FeedError(ErrUnexpectedEOF)
	}
}

// tryNext pops the next item without blocking. ok is false when the
// consumer must wait for more state.
func (s *Stream) tryNext() (data []byte, err error, eof bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.chunks) > 0 {
		data = s.chunks[0]
		s.chunks = s.chunks[1:]
		return data, nil, false, true
	}
	if s.err != nil {
		// An error is terminal: it is surfaced exactly once, then the
		// stream yields EOF.
		err = s.err
		s.err = nil
		s.eof = true
		return nil, err, false, true
	}
	if s.eof {
		return nil, nil, true, true
	}
	return nil, nil, false, false
}

// Next blocks until a chunk, a queued error, or EOF is available, or ctx
// reports Done via the done channel argument (nil to ignore cancellation).
// It returns (chunk, nil, false) for data, (nil, err, false) for a queued
// error, and (nil, nil, true) at EOF.
func (s *Stream) Next(done <-chan struct{}) ([]byte, error, bool) {
	for {
		if data, err, eof, ok := s.tryNext(); ok {
			return data, err, eof
		}
		select {
		case <-s.wake:
		case <-done:
			return nil, ErrUnexpectedEOF, false
		}
	}
}
