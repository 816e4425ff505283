// Package body implements the three-variant request/response body model:
// None (no bytes), Fixed (known length, single delivery), and Stream
// (unbounded chunks until EOF), each wired to the payload package's
// SPSC channels and tagged with the StreamHint the sender uses to choose
// wire framing without inspecting contents.
package body

import (
	"context"
	"io"

	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/payload"
)

// Body is satisfied by all three body variants. NextData returns io.EOF
// once the body is exhausted.
type Body interface {
	Hint() httpx.StreamHint
	NextData(ctx context.Context) ([]byte, error)
}

// None is the empty body: no bytes, no framing.
type None struct{}

func (None) Hint() httpx.StreamHint                   { return httpx.HintNone }
func (None) NextData(context.Context) ([]byte, error) { return nil, io.EOF }

// Fixed is a known-length body delivered as a single value over a
// payload.Fixed slot.
type Fixed struct {
	Size      int64
	payload   *payload.Fixed
	delivered bool
}

// NewFixed wraps p as a Fixed body of the given declared size.
func NewFixed(size int64, p *payload.Fixed) *Fixed {
	return &Fixed{Size: size, payload: p}
}

func (f *Fixed) Hint() httpx.StreamHint { return httpx.HintFixed }

func (f *Fixed) NextData(ctx context.Context) ([]byte, error) {
	if f.delivered {
		return nil, io.EOF
	}
	select {
	case <-f.payload.Ready():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	data, err := f.payload.Wait()
	f.delivered = true
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, io.EOF
	}
	return data, nil
}

// Stream is an unbounded sequence of chunks over a payload.Stream queue.
type Stream struct {
	payload *payload.Stream
}

// NewStream wraps s as a Stream body.
func NewStream(s *payload.Stream) *Stream {
	return &Stream{payload: s}
}

func (s *Stream) Hint() httpx.StreamHint { return httpx.HintStream }

func (s *Stream) NextData(ctx context.Context) ([]byte, error) {
	data, err, eof := s.payload.Next(ctx.Done())
	if err != nil {
		return nil, err
	}
	if eof {
		return nil, io.EOF
	}
	return data, nil
}

// Reader adapts a Body to io.Reader, for callers (like the HTTP/2 body
// pump) that need a stdlib-shaped reader. A single NextData chunk may be
// larger than the caller's buffer; the remainder is buffered across
// Read calls.
type Reader struct {
	ctx  context.Context
	body Body
	buf  []byte
	eof  bool
}

// NewReader returns an io.Reader draining body until io.EOF, using ctx for
// cancellation of each NextData call.
func NewReader(ctx context.Context, b Body) *Reader {
	return &Reader{ctx: ctx, body: b}
}

func (r *Reader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.eof {
			return 0, io.EOF
		}
		chunk, err := r.body.NextData(r.ctx)
		if err == io.EOF {
			r.eof = true
			if len(chunk) == 0 {
				return 0, io.EOF
			}
			r.buf = chunk
			break
		}
		if err != nil {
			return 0, err
		}
		r.buf = chunk
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
