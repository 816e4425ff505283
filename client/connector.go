package client

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborlane/httpcore/internal/conn"
	"github.com/harborlane/httpcore/internal/connkey"
	"github.com/harborlane/httpcore/internal/h1"
	"github.com/harborlane/httpcore/internal/h2"
	"github.com/harborlane/httpcore/internal/logging"
	"github.com/harborlane/httpcore/internal/transport"
)

// Connector dials fresh connections for a key, choosing HTTP/1 or
// HTTP/2 per version. Callers that want a non-default transport (a fake
// for tests, an HTTP proxy dialer) supply their own via WithConnector.
type Connector interface {
	Connect(ctx context.Context, key connkey.Key, version VersionPolicy) (conn.Unified, error)
}

// dialConnector is the default Connector: real TCP/TLS sockets via
// transport.Dialer, HTTP/2 negotiated via ALPN (TLS) or prior knowledge
// (cleartext, when version forces H2).
type dialConnector struct {
	dialer    *transport.Dialer
	codecCfg  h1.Config
	h2Limiter *h2.PumpLimiter
	log       logging.Logger
}

func newDialConnector(o *Options, limiter *h2.PumpLimiter) *dialConnector {
	return &dialConnector{
		dialer: o.dialer(),
		codecCfg: h1.Config{
			Limits:      o.ParseLimits,
			MaxBodySize: o.MaxBodySize,
			MaxSendSize: o.MaxRequestBodySize,
		},
		h2Limiter: limiter,
		log:       o.logger(),
	}
}

func (d *dialConnector) Connect(ctx context.Context, key connkey.Key, version VersionPolicy) (conn.Unified, error) {
	// Tag every dial with a short-lived debug ID so log lines from the
	// handshake through the first exchange on a fresh connection can be
	// correlated.
	connLog := d.log.With("conn_id", uuid.NewString())

	addr := transport.Address{
		Network: transport.NetworkTCP,
		Addr:    key.String(),
	}
	if key.TLS {
		addr.ServerName = key.ServerName
		if version == VersionH1Only {
			addr.NextProtos = []string{"http/1.1"}
		} else {
			addr.NextProtos = []string{"h2", "http/1.1"}
		}
	}

	tc, err := d.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	useH2 := version == VersionH2Only
	if key.TLS && version == VersionAuto {
		useH2 = tc.NegotiatedProtocol() == "h2"
	}

	if useH2 {
		sender, err := h2.Handshake(tc.Raw(), connLog)
		if err != nil {
			_ = tc.Shutdown()
			return nil, err
		}
		connLog.Debugw("h2 handshake complete", "key", key.String())
		return conn.NewH2(sender, d.h2Limiter, connLog), nil
	}

	codec := h1.NewCodec(tc, d.codecCfg)
	connLog.Debugw("h1 dial complete", "key", key.String())
	return conn.NewH1(codec), nil
}
