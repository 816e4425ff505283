package conn

import (
	"context"

	"github.com/harborlane/httpcore/internal/body"
	"github.com/harborlane/httpcore/internal/h1"
	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/payload"
)

// H1 wraps an internal/h1.Codec as a Unified connection.
type H1 struct {
	codec *h1.Codec
}

// NewH1 wraps codec as a Unified HTTP/1 connection.
func NewH1(codec *h1.Codec) *H1 { return &H1{codec: codec} }

// Codec returns the wrapped codec, for callers (the pool) that need to
// classify reusability or return it to a pool.Handle.
func (c *H1) Codec() *h1.Codec { return c.codec }

func (c *H1) Protocol() Protocol { return ProtoH1 }

func (c *H1) Close() error { return c.codec.Close() }

// Send encodes and flushes the request, decodes the response head, then
// hands back a body that is drained by a background goroutine feeding a
// payload.Stream, splitting the I/O reader from the body consumer. done
// yields once that goroutine finishes, reporting the same error the
// body consumer would see.
func (c *H1) Send(ctx context.Context, req *httpx.Request, b body.Body, fixedLen int64) (*httpx.Response, body.Body, <-chan error, error) {
	if err := c.codec.SendRequest(ctx, req, b, fixedLen); err != nil {
		return nil, nil, nil, err
	}
	resp, err := c.codec.ReadHead()
	if err != nil {
		return nil, nil, nil, err
	}

	done := make(chan error, 1)

	if !c.codec.InPayload() {
		st := payload.NewStream()
		st.FeedData(nil) // immediate EOF: no body in flight
		done <- nil
		return resp, body.NewStream(st), done, nil
	}

	st := payload.NewStream()
	go func() {
		err := c.codec.FillPayload(ctx, func(chunk []byte) error {
			cp := make([]byte, len(chunk))
			copy(cp, chunk)
			st.FeedData(cp)
			return nil
		})
		if err != nil {
			st.FeedError(err)
			done <- err
			return
		}
		st.FeedData(nil) // EOF
		done <- nil
	}()

	return resp, body.NewStream(st), done, nil
}
