// Package h1 implements the HTTP/1 codec's coupling between the buffered
// reader/writer and the head/body decoders of internal/httpx: a request
// write pipeline and a response read pipeline that switches between
// "expect head" and "expect body" modes.
package h1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/harborlane/httpcore/internal/body"
	"github.com/harborlane/httpcore/internal/httperr"
	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/netx"
	"github.com/harborlane/httpcore/internal/transport"
)

// writeBufSize is the backpressure boundary: a fixed body that fits in
// the room left in this many bytes after the encoded head is copied into
// the write buffer; a larger one is written directly after flushing the
// head.
const writeBufSize = 8 << 10

// Config bundles a Codec's knobs: head-parse limits plus the decode and
// encode body-size caps (0 = unbounded for either).
type Config struct {
	Limits httpx.ParseLimits
	// MaxBodySize caps decoded response bodies.
	MaxBodySize int64
	// MaxSendSize caps encoded request bodies; a fixed body over the
	// cap, or a stream that accumulates past it, fails the send with a
	// payload-too-large encode error.
	MaxSendSize int64
}

// state tracks whether the read half is expecting the next head or is
// mid-payload for the previous response.
type readState int

const (
	stateHead readState = iota
	statePayload
)

// Codec owns a split read half (buffered reader + decoder state machine)
// and a split write half (buffered writer) over one transport.Conn. A
// connection is HTTP/1 for its entire lifetime; Codec does not handle
// HTTP/2.
type Codec struct {
	conn transport.Conn

	rd      *netx.CRLFFastReader
	limits  httpx.ParseLimits
	maxBody int64
	maxSend int64

	state readState
	body  io.ReadCloser // active decoder while state==statePayload

	writeBuf bytes.Buffer
}

// NewCodec wraps conn in an HTTP/1 codec configured by cfg.
func NewCodec(conn transport.Conn, cfg Config) *Codec {
	if cfg.Limits.MaxLineBytes <= 0 {
		cfg.Limits.MaxLineBytes = 64 << 10
	}
	return &Codec{
		conn:    conn,
		rd:      netx.NewCRLFFastReader(conn),
		limits:  cfg.Limits,
		maxBody: cfg.MaxBodySize,
		maxSend: cfg.MaxSendSize,
		state:   stateHead,
	}
}

// InPayload reports whether a response body is still being drained;
// while true, ReadHead must not be called.
func (c *Codec) InPayload() bool { return c.state == statePayload }

// SendRequest encodes and writes the request head, then drains b
// according to its StreamHint, flushing at the end. fixedLen is the
// declared content-length for a Fixed body (ignored otherwise).
func (c *Codec) SendRequest(ctx context.Context, req *httpx.Request, b body.Body, fixedLen int64) error {
	hint := b.Hint()
	if hint == httpx.HintFixed && c.maxSend > 0 && fixedLen > c.maxSend {
		return httperr.Encode(httperr.KindPayloadTooLarge,
			fmt.Errorf("h1: request body of %d bytes exceeds the %d-byte cap", fixedLen, c.maxSend))
	}

	c.writeBuf.Reset()
	if err := httpx.EncodeRequestHead(&c.writeBuf, req, hint, fixedLen); err != nil {
		return httperr.Encode(httperr.KindParse, err)
	}

	switch hint {
	case httpx.HintNone:
		return c.flushCheck(ctx)

	case httpx.HintFixed:
		data, err := b.NextData(ctx)
		if err != nil && err != io.EOF {
			return httperr.Encode("", err)
		}
		if int64(len(data)) <= writeBufSize-int64(c.writeBuf.Len()) {
			c.writeBuf.Write(data)
			return c.flushCheck(ctx)
		}
		if err := c.flush(); err != nil {
			return httperr.IO(err)
		}
		if _, err := c.conn.Write(data); err != nil {
			return httperr.IO(err)
		}
		if err := c.conn.Flush(); err != nil {
			return httperr.IO(err)
		}
		return nil

	case httpx.HintStream:
		if err := c.flush(); err != nil {
			return httperr.IO(err)
		}
		cw := httpx.NewChunkedWriter(c.conn)
		var sent int64
		for {
			data, err := b.NextData(ctx)
			if len(data) > 0 {
				sent += int64(len(data))
				if c.maxSend > 0 && sent > c.maxSend {
					return httperr.Encode(httperr.KindPayloadTooLarge,
						fmt.Errorf("h1: streamed request body exceeds the %d-byte cap", c.maxSend))
				}
				if _, werr := cw.Write(data); werr != nil {
					return httperr.IO(werr)
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return httperr.Encode("", err)
			}
		}
		if err := cw.Close(); err != nil {
			return httperr.IO(err)
		}
		return c.flushCheck(ctx)

	default:
		return httperr.Encode(httperr.KindParse, fmt.Errorf("h1: unknown stream hint %v", hint))
	}
}

func (c *Codec) flushCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return httperr.IO(ctx.Err())
	default:
	}
	if err := c.flush(); err != nil {
		return httperr.IO(err)
	}
	return nil
}

func (c *Codec) flush() error {
	if c.writeBuf.Len() > 0 {
		if _, err := c.conn.Write(c.writeBuf.Bytes()); err != nil {
			return err
		}
		c.writeBuf.Reset()
	}
	return c.conn.Flush()
}

// Close flushes then shuts down the underlying transport.
func (c *Codec) Close() error {
	_ = c.flush()
	return c.conn.Shutdown()
}

// ReadHead decodes the next response head. It must only be called when
// not InPayload; callers that violate this have a programming error, not
// a runtime condition.
func (c *Codec) ReadHead() (*httpx.Response, error) {
	if c.state == statePayload {
		panic("h1: ReadHead called while a payload is still in flight")
	}

	resp, kind, length, err := httpx.ParseResponse(c.rd, c.limits)
	if err != nil {
		return nil, httperr.Decode(httpx.DecodeKind(err), err)
	}

	body, err := httpx.NewBodyReaderForFraming(context.Background(), kind, length, c.rd, c.maxBody, nil)
	if err != nil {
		return nil, httperr.Decode(httpx.DecodeKind(err), err)
	}
	if kind == httpx.FramingNone {
		// No body in flight; stay in head mode.
		return resp, nil
	}
	c.body = body
	c.state = statePayload
	return resp, nil
}

// classifyBodyErr maps a body-decoder failure onto the decode taxonomy:
// malformed chunk framing, oversized body, truncation, and plain I/O
// each get their own kind. Errors that are already classified (e.g. a
// context cancellation wrapped by the reader) pass through unchanged.
func classifyBodyErr(err error) error {
	var he *httperr.Error
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, httpx.ErrBadChunk), errors.Is(err, httpx.ErrUnexpectedTrailer):
		return httperr.Decode(httperr.KindChunked, err)
	case errors.Is(err, httpx.ErrBodyTooLarge):
		return httperr.Decode(httperr.KindPayloadTooLarge, err)
	case errors.Is(err, httpx.ErrLengthMismatch), errors.Is(err, io.ErrUnexpectedEOF):
		return httperr.Decode(httperr.KindUnexpectedEOF, err)
	default:
		return httperr.Decode(httperr.KindIO, err)
	}
}

// FillPayload drives the active body decoder to completion, invoking
// onChunk for each decoded slice. It returns when the body reaches EOF
// (restoring head mode) or on error (state is left mid-payload so the
// caller, typically the pool, marks the connection unreusable).
func (c *Codec) FillPayload(ctx context.Context, onChunk func([]byte) error) error {
	if c.state != statePayload {
		return nil
	}
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return httperr.Decode(httperr.KindIO, ctx.Err())
		default:
		}
		n, err := c.body.Read(buf)
		if n > 0 {
			if cbErr := onChunk(buf[:n]); cbErr != nil {
				return cbErr
			}
		}
		if err == io.EOF {
			c.state = stateHead
			c.body = nil
			return nil
		}
		if err != nil {
			return classifyBodyErr(err)
		}
	}
}

// DiscardPayload reads and drops the remainder of the active body, for
// callers that abandon a response without consuming it. Returns an error
// if draining fails, in which case the connection must not be pooled.
func (c *Codec) DiscardPayload(ctx context.Context) error {
	return c.FillPayload(ctx, func([]byte) error { return nil })
}
