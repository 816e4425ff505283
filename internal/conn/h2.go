package conn

import (
	"context"
	"io"
	"net/http"

	"github.com/harborlane/httpcore/internal/body"
	"github.com/harborlane/httpcore/internal/h2"
	"github.com/harborlane/httpcore/internal/httperr"
	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/logging"
)

// H2 wraps a cloned internal/h2.SharedSender as a Unified connection.
// The H2 handle is not pooled per-request; it is shared via Clone, so
// Close here only affects this one clone's bookkeeping, not the
// underlying multiplexed socket.
type H2 struct {
	sender  *h2.SharedSender
	limiter *h2.PumpLimiter
	log     logging.Logger
}

// NewH2 wraps sender (already a Clone of the pool's shared handle) as a
// Unified HTTP/2 connection. limiter may be nil to disable the
// concurrent-pump bound.
func NewH2(sender *h2.SharedSender, limiter *h2.PumpLimiter, log logging.Logger) *H2 {
	return &H2{sender: sender, limiter: limiter, log: log}
}

func (c *H2) Protocol() Protocol { return ProtoH2 }

// Sender returns the wrapped handle, for callers (the client façade)
// that need to install it in the pool as the shared per-key handle
// future requests Clone from.
func (c *H2) Sender() *h2.SharedSender { return c.sender }

// Close is a no-op for H2: the handle is a clone; the underlying
// connection outlives any one exchange. The pool drops its shared handle
// once CanTakeNewRequest goes false but does not close the transport.
func (c *H2) Close() error { return nil }

// Send submits the request head, spawns the body pump (realized as an
// io.Reader adapter driven by x/net/http2's internal write loop; see
// internal/h2), and awaits the response head.
func (c *H2) Send(ctx context.Context, req *httpx.Request, b body.Body, fixedLen int64) (*httpx.Response, body.Body, <-chan error, error) {
	target := requestURL(req)

	hreq, err := h2.NewRequest(ctx, req.Method, target, toHTTPHeader(req.Header), b, c.limiter, c.log)
	if err != nil {
		return nil, nil, nil, httperr.Encode(httperr.KindParse, err)
	}
	if b.Hint() == httpx.HintFixed {
		hreq.ContentLength = fixedLen
	}

	hresp, err := c.sender.RoundTrip(hreq)
	if err != nil {
		return nil, nil, nil, err
	}

	resp := fromHTTPResponse(hresp)
	done := make(chan error, 1)
	done <- nil
	return resp, newH2Body(hresp.Body), done, nil
}

// requestURL builds the absolute URL x/net/http2 needs from a
// client-originated request, which always carries Scheme+Host on its
// URL (the httpcore façade fills these in from the destination, even
// for an otherwise origin-form target).
func requestURL(req *httpx.Request) string {
	u := *req.URL
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String()
}

func toHTTPHeader(h httpx.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return out
}

func fromHTTPResponse(r *http.Response) *httpx.Response {
	hdr := make(httpx.Header, len(r.Header))
	for k, v := range r.Header {
		hdr[httpx.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return &httpx.Response{
		Proto:      "HTTP/2.0",
		ProtoMajor: 2,
		ProtoMinor: 0,
		StatusCode: r.StatusCode,
		Status:     http.StatusText(r.StatusCode),
		Header:     hdr,
	}
}

// h2Body adapts an *http.Response's Body (the HTTP/2 receive-stream)
// into the body.Body interface the rest of the core consumes.
type h2Body struct {
	rc io.ReadCloser
}

func newH2Body(rc io.ReadCloser) body.Body { return &h2Body{rc: rc} }

func (b *h2Body) Hint() httpx.StreamHint { return httpx.HintStream }

// NextData reads the next chunk of the H2 receive-stream. A separate ctx
// select is unnecessary: the stream's Read is already tied to the
// request's context (it was created via http.NewRequestWithContext), so
// canceling ctx unblocks Read with an error the moment the peer's
// RST_STREAM or our own cancellation lands.
func (b *h2Body) NextData(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 32*1024)
	n, err := b.rc.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, httperr.H2(httperr.KindStream, err)
	}
	return nil, nil
}

// Close releases the underlying receive-stream, for callers that
// abandon a response before EOF.
func (b *h2Body) Close() error { return b.rc.Close() }
