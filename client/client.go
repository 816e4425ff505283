package client

import (
	"context"
	"errors"
	"strings"

	httpcore "github.com/harborlane/httpcore"
	"github.com/harborlane/httpcore/internal/conn"
	"github.com/harborlane/httpcore/internal/connkey"
	"github.com/harborlane/httpcore/internal/h2"
	"github.com/harborlane/httpcore/internal/httperr"
	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/logging"
	"github.com/harborlane/httpcore/internal/pool"
)

// Client is the façade over the whole send path: given a request, it
// derives the connection key, obtains a connection (pool hit or fresh
// dial), dispatches the send, and reports reusability back to the pool.
type Client struct {
	pool      *pool.Pool
	connector Connector
	version   VersionPolicy
	h2Limiter *h2.PumpLimiter
	log       logging.Logger
}

// New builds a Client with VersionAuto: HTTP/2 is used when a request
// asks for it (or the peer ALPNs to h2 over TLS); otherwise HTTP/1.1.
func New(opts ...Option) *Client {
	return build(VersionAuto, opts)
}

// NewH1Only builds a Client that never negotiates HTTP/2, even over TLS.
func NewH1Only(opts ...Option) *Client {
	return build(VersionH1Only, opts)
}

// NewH2Only builds a Client that always negotiates HTTP/2 (prior
// knowledge over cleartext, ALPN-forced over TLS).
func NewH2Only(opts ...Option) *Client {
	return build(VersionH2Only, opts)
}

func build(v VersionPolicy, opts []Option) *Client {
	var o Options
	o.Version = v
	for _, opt := range opts {
		opt(&o)
	}
	if o.Version != v && v != VersionAuto {
		// An explicit constructor wins over a WithVersion option that
		// disagrees with it; this only matters if a caller passes both,
		// which is a programming error we resolve deterministically.
		o.Version = v
	}
	log := o.logger()
	limiter := o.h2Limiter()
	connector := o.Connector
	if connector == nil {
		connector = newDialConnector(&o, limiter)
	}
	return &Client{
		pool:      pool.New(log),
		connector: connector,
		version:   o.Version,
		h2Limiter: limiter,
		log:       log,
	}
}

// Close tears down every idle pooled connection.
func (c *Client) Close() error {
	return c.pool.Close()
}

// Do sends req and returns its response head plus a streaming body
// handle: compute the connection key, try the pool, dispatch, and let
// the body continue to deliver chunks as the background I/O task
// produces them.
func (c *Client) Do(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error) {
	key, err := connkey.FromURL(req.URL)
	if err != nil {
		return nil, httperr.FromURI(classifyURIError(err), err)
	}

	version := c.version
	if req.ForceHTTP2 {
		version = VersionH2Only
	}

	hreq := toHTTPXRequest(req, key)

	if version != VersionH2Only {
		if codec, ok := c.pool.GetH1(key); ok {
			handle := pool.NewHandle(key, codec, c.pool)
			resp, err := c.sendH1(ctx, conn.NewH1(codec), handle, hreq, req)
			if err == nil || !isDeadConnError(err) || req.BodyHint() != httpx.HintNone {
				return resp, err
			}
			// Pooled codec was stale (peer closed it while idle); fall
			// through to a fresh dial rather than surfacing a spurious
			// I/O error. Only bodiless requests are retried: a body may
			// already have been consumed by the first attempt.
		}
	}

	if sender, ok := c.pool.GetH2(key); ok {
		return c.sendH2(ctx, conn.NewH2(sender, c.h2Limiter, c.log), hreq, req)
	}

	uc, err := c.connector.Connect(ctx, key, version)
	if err != nil {
		return nil, err
	}

	switch cc := uc.(type) {
	case *conn.H1:
		handle := pool.NewHandle(key, cc.Codec(), c.pool)
		return c.sendH1(ctx, cc, handle, hreq, req)
	case *conn.H2:
		c.pool.PutH2(key, cc.Sender())
		return c.sendH2(ctx, cc, hreq, req)
	default:
		return nil, errors.New("client: connector returned an unrecognized connection type")
	}
}

func (c *Client) sendH1(ctx context.Context, h1c *conn.H1, handle *pool.Handle, hreq *httpx.Request, orig *httpcore.Request) (*httpcore.Response, error) {
	resp, respBody, done, err := h1c.Send(ctx, hreq, orig.Body(), orig.FixedLen())
	if err != nil {
		handle.Release(false)
		return nil, err
	}

	// The reuse decision needs both the response head and whether the
	// exchange completed cleanly, so it is finalized here rather than in
	// the codec: the head's verdict now, the drain outcome once the
	// consumer reaches EOF. Abandoning the body forfeits reuse outright.
	headerReusable := classifyH1Reusable(resp)
	onClose := func(reusable bool) {
		if !reusable {
			handle.Release(false)
			return
		}
		bodyErr := <-done
		handle.Release(headerReusable && bodyErr == nil)
	}

	return httpcore.NewResponse(resp, respBody, onClose), nil
}

func (c *Client) sendH2(ctx context.Context, h2c *conn.H2, hreq *httpx.Request, orig *httpcore.Request) (*httpcore.Response, error) {
	resp, respBody, _, err := h2c.Send(ctx, hreq, orig.Body(), orig.FixedLen())
	if err != nil {
		return nil, err
	}
	return httpcore.NewResponse(resp, respBody, nil), nil
}

// classifyH1Reusable: not reusable if Connection: close is present
// (case-insensitive); if the header is absent, reusable only when the
// response isn't HTTP/1.0.
func classifyH1Reusable(resp *httpx.Response) bool {
	c := resp.Header.Get("Connection")
	if strings.EqualFold(c, "close") {
		return false
	}
	if c == "" {
		return !(resp.ProtoMajor == 1 && resp.ProtoMinor == 0)
	}
	return true
}

func classifyURIError(err error) httperr.Kind {
	switch {
	case errors.Is(err, connkey.ErrUnsupportedScheme):
		return httperr.KindUnsupportedScheme
	case errors.Is(err, connkey.ErrNoAuthority):
		return httperr.KindNoAuthority
	case errors.Is(err, connkey.ErrInvalidDNSName):
		return httperr.KindInvalidDNSName
	default:
		return ""
	}
}

// isDeadConnError reports whether err looks like the pooled codec was
// already dead on the wire (peer closed it while idle) rather than a
// failure caused by this exchange, so Do can retry once against a fresh
// connection instead of surfacing a confusing error for a connection the
// caller never got to use.
func isDeadConnError(err error) bool {
	var he *httperr.Error
	if !errors.As(err, &he) {
		return false
	}
	return he.Category == httperr.CategoryIO
}

func toHTTPXRequest(r *httpcore.Request, key connkey.Key) *httpx.Request {
	hdr := make(httpx.Header, len(r.Header)+1)
	for k, v := range r.Header {
		hdr[httpx.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	if !hdr.Has("Host") {
		hdr.Set("Host", key.String())
	}

	req := &httpx.Request{}
	req.Method = r.Method
	req.Proto = "HTTP/1.1"
	req.ProtoMajor = 1
	req.ProtoMinor = 1
	req.Header = hdr
	req.URL = &httpx.URL{
		Scheme:   r.URL.Scheme,
		Host:     r.URL.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
	return req
}
