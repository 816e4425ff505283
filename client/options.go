// Package client implements the client façade: given a built request,
// it derives the connection key, obtains a connection (from the pool or
// a fresh dial), dispatches the send, and reports reusability.
package client

import (
	"github.com/harborlane/httpcore/internal/h2"
	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/logging"
	"github.com/harborlane/httpcore/internal/transport"
)

// VersionPolicy selects which protocol a Client prefers for a given
// destination.
type VersionPolicy int

const (
	// VersionAuto inspects each request: an explicit HTTP/2 request
	// forces H2 (prior-knowledge over cleartext, ALPN over TLS);
	// otherwise HTTP/1.1.
	VersionAuto VersionPolicy = iota
	// VersionH1Only never negotiates HTTP/2, even over TLS with h2 in
	// the peer's ALPN list.
	VersionH1Only
	// VersionH2Only always negotiates HTTP/2: prior-knowledge cleartext
	// or ALPN-forced over TLS.
	VersionH2Only
)

// Options configures a Client. The zero value is usable: a real
// *transport.Dialer, a no-op Logger, and VersionAuto.
type Options struct {
	Dialer      *transport.Dialer
	Logger      logging.Logger
	ParseLimits httpx.ParseLimits
	// MaxBodySize bounds decoded HTTP/1 response bodies; 0 is unbounded.
	MaxBodySize int64
	// MaxRequestBodySize bounds encoded HTTP/1 request bodies; a body
	// over the cap fails the send with a payload-too-large encode
	// error before any of it reaches the wire. 0 is unbounded.
	MaxRequestBodySize int64
	// H2PumpLimit bounds concurrent HTTP/2 body-pump tasks across all
	// of the Client's HTTP/2 connections; 0 disables the bound.
	H2PumpLimit int64
	Version     VersionPolicy
	Connector   Connector
}

// Option mutates an Options via the functional-options pattern. Options
// is a plain struct, never a config-file or environment layer.
type Option func(*Options)

func WithDialer(d *transport.Dialer) Option {
	return func(o *Options) { o.Dialer = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func WithParseLimits(limits httpx.ParseLimits) Option {
	return func(o *Options) { o.ParseLimits = limits }
}

func WithMaxBodySize(n int64) Option {
	return func(o *Options) { o.MaxBodySize = n }
}

func WithMaxRequestBodySize(n int64) Option {
	return func(o *Options) { o.MaxRequestBodySize = n }
}

func WithH2PumpLimit(n int64) Option {
	return func(o *Options) { o.H2PumpLimit = n }
}

func WithVersion(v VersionPolicy) Option {
	return func(o *Options) { o.Version = v }
}

// WithConnector overrides the default dial-based Connector entirely,
// for callers that need a custom transport (a proxy dialer, a fake for
// tests).
func WithConnector(c Connector) Option {
	return func(o *Options) { o.Connector = c }
}

func (o *Options) logger() logging.Logger {
	if o.Logger == (logging.Logger{}) {
		return logging.Nop()
	}
	return o.Logger
}

func (o *Options) dialer() *transport.Dialer {
	if o.Dialer == nil {
		return &transport.Dialer{}
	}
	return o.Dialer
}

func (o *Options) h2Limiter() *h2.PumpLimiter {
	if o.H2PumpLimit <= 0 {
		return nil
	}
	return h2.NewPumpLimiter(o.H2PumpLimit)
}
