package httpcore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/harborlane/httpcore/internal/body"
	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/payload"
)

// Request is the caller-facing request builder: method, URL, headers,
// and one of the three body shapes, with chaining setters.
type Request struct {
	Method     string
	URL        *url.URL
	Header     http.Header
	ForceHTTP2 bool

	body     body.Body
	bodyHint httpx.StreamHint
	fixedLen int64
}

// NewRequest builds a Request for method and rawURL, with no body.
func NewRequest(method, rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("httpcore: parse url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("httpcore: %q has no host", rawURL)
	}
	return &Request{
		Method: strings.ToUpper(method),
		URL:    u,
		Header: make(http.Header),
		body:   body.None{},
	}, nil
}

// SetHeader sets key to value, replacing any existing values.
func (r *Request) SetHeader(key, value string) *Request {
	r.Header.Set(key, value)
	return r
}

// AddHeader appends value to key's existing values.
func (r *Request) AddHeader(key, value string) *Request {
	r.Header.Add(key, value)
	return r
}

// WithHTTP2 forces this request onto an HTTP/2 connection:
// prior-knowledge h2 over cleartext, ALPN h2 over TLS.
func (r *Request) WithHTTP2() *Request {
	r.ForceHTTP2 = true
	return r
}

// SetBytes attaches data as a fixed body (known length, single
// delivery), framed on the wire with Content-Length.
func (r *Request) SetBytes(data []byte) *Request {
	p := payload.NewFixed()
	p.Feed(data, nil)
	r.body = body.NewFixed(int64(len(data)), p)
	r.bodyHint = httpx.HintFixed
	r.fixedLen = int64(len(data))
	return r
}

// SetJSON marshals v and attaches it as a Fixed body, setting
// Content-Type to application/json.
func (r *Request) SetJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("httpcore: marshal json: %w", err)
	}
	r.SetBytes(data)
	r.Header.Set("Content-Type", "application/json")
	return nil
}

// StreamWriter is the producer half of a streaming body: callers feed
// chunks until Close, or abort early with CloseWithError.
type StreamWriter struct {
	p *payload.Stream
}

// Write appends a chunk to the request body stream. Ownership of data
// transfers to the stream; the caller must not mutate it afterward.
func (w *StreamWriter) Write(data []byte) (int, error) {
	w.p.FeedData(data)
	return len(data), nil
}

// Close signals end-of-body (triggers a terminating chunked frame on
// HTTP/1, end-of-stream on HTTP/2).
func (w *StreamWriter) Close() error {
	w.p.FeedData(nil)
	return nil
}

// CloseWithError aborts the body with err, which the body's reader
// returns as is and the HTTP/1 send path wraps as an encode error.
func (w *StreamWriter) CloseWithError(err error) {
	w.p.FeedError(err)
}

// SetStream attaches an unbounded streaming body and returns the
// writer the caller feeds it through. The returned writer must
// eventually be Closed (or CloseWithError'd), or the send path blocks
// forever waiting for the next chunk.
func (r *Request) SetStream() *StreamWriter {
	p := payload.NewStream()
	r.body = body.NewStream(p)
	r.bodyHint = httpx.HintStream
	return &StreamWriter{p: p}
}

// Body returns the request's body for the client façade to drive. Not
// meant for direct use by callers outside this module.
func (r *Request) Body() body.Body { return r.body }

// BodyHint returns the body's StreamHint.
func (r *Request) BodyHint() httpx.StreamHint { return r.bodyHint }

// FixedLen returns the declared length for a Fixed body (valid only
// when BodyHint() == httpx.HintFixed).
func (r *Request) FixedLen() int64 { return r.fixedLen }
