package httpcore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/harborlane/httpcore/internal/body"
	"github.com/harborlane/httpcore/internal/httpx"
)

// Response is the caller-facing response returned from a send. Go has no
// destructor, so abandoning a body mid-stream is expressed as an explicit
// Close call that marks the underlying connection non-reusable.
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Header     http.Header

	mu      sync.Mutex
	body    body.Body
	eof     bool
	closed  bool
	onClose func(reusable bool)
}

// NewResponse builds a Response from a parsed head and its body,
// wired to onClose so the client façade learns the exchange's terminal
// reusability the moment the body finishes (or is abandoned). Not meant
// for direct construction by callers outside this module.
func NewResponse(head *httpx.Response, b body.Body, onClose func(reusable bool)) *Response {
	hdr := make(http.Header, len(head.Header))
	for k, v := range head.Header {
		hdr[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return &Response{
		StatusCode: head.StatusCode,
		Status:     head.ReasonPhrase(),
		Proto:      head.Proto,
		Header:     hdr,
		body:       b,
		onClose:    onClose,
	}
}

// Chunk returns the next chunk of the response body, io.EOF once
// exhausted. Reaching EOF finalizes the exchange as reusable; any other
// error finalizes it as not reusable.
func (r *Response) Chunk(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eof {
		return nil, io.EOF
	}
	data, err := r.body.NextData(ctx)
	switch err {
	case nil:
	case io.EOF:
		r.eof = true
		r.finishLocked(true)
	default:
		r.finishLocked(false)
	}
	return data, err
}

// Bytes drains the entire body and returns it as one slice.
func (r *Response) Bytes(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := r.Chunk(ctx)
		if len(chunk) > 0 {
			buf.Write(chunk)
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Text drains the entire body and returns it as a string.
func (r *Response) Text(ctx context.Context) (string, error) {
	b, err := r.Bytes(ctx)
	return string(b), err
}

// JSON drains the entire body and unmarshals it into v.
func (r *Response) JSON(ctx context.Context, v any) error {
	b, err := r.Bytes(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Close abandons the response. If the body was already fully drained
// this is a no-op; otherwise the underlying connection is marked
// non-reusable, since its body producer can no longer be drained
// safely. Close is idempotent and safe to call after a full drain.
func (r *Response) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.eof {
		r.finishLocked(false)
	}
	if c, ok := r.body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *Response) finishLocked(reusable bool) {
	if r.closed {
		return
	}
	r.closed = true
	if r.onClose != nil {
		r.onClose(reusable)
	}
}
