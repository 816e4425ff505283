// Package conn implements the unified connection abstraction: a
// polymorphic container over {HTTP/1 codec, HTTP/2 send handle} that
// dispatches Send without its callers needing to know which protocol is
// underneath.
package conn

import (
	"context"

	"github.com/harborlane/httpcore/internal/body"
	"github.com/harborlane/httpcore/internal/httpx"
)

// Protocol names which variant a Unified connection is. A connection is
// one protocol for its entire lifetime.
type Protocol int

const (
	ProtoH1 Protocol = iota
	ProtoH2
)

func (p Protocol) String() string {
	if p == ProtoH2 {
		return "h2"
	}
	return "h1"
}

// Unified drives one request/response exchange, returning the response
// head and a body handle that continues to deliver chunks as the
// exchange completes in the background.
type Unified interface {
	Protocol() Protocol
	// Send encodes req (with body b, framed per b.Hint(), fixedLen valid
	// only when the hint is Fixed) and returns the response head plus its
	// body. done reports the terminal outcome of draining respBody: nil
	// on clean EOF, non-nil on any decode/IO error. For HTTP/2, done is
	// always a channel that immediately yields nil, since reusability of
	// the shared sender is governed by CanTakeNewRequest, not a
	// per-exchange outcome; the façade only consults done for HTTP/1.
	Send(ctx context.Context, req *httpx.Request, b body.Body, fixedLen int64) (resp *httpx.Response, respBody body.Body, done <-chan error, err error)
	// Close tears down the underlying transport immediately, bypassing
	// any pool.
	Close() error
}
