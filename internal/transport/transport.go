// Package transport implements the unified connection abstraction: a
// single read/write/flush/shutdown surface over TCP, Unix-domain, and
// TLS-wrapped variants of each, dialed via one Dialer.
package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/harborlane/httpcore/internal/httperr"
)

// Network names the underlying socket family.
type Network string

const (
	NetworkTCP  Network = "tcp"
	NetworkUnix Network = "unix"
)

// Address names a dial target. ServerName non-empty requests a TLS
// handshake (with that name used for both SNI and certificate
// verification); empty means plaintext.
type Address struct {
	Network    Network
	Addr       string // host:port for tcp, socket path for unix
	ServerName string
	// NextProtos is offered via ALPN when ServerName is set; leave nil
	// for HTTP/1.1-only dials, or {"h2", "http/1.1"} to allow either.
	NextProtos []string
}

// Conn is the uniform surface every transport variant satisfies.
type Conn interface {
	io.Reader
	io.Writer
	// Flush pushes any internally buffered bytes to the peer. Plain
	// net.Conn variants have nothing to flush and return nil.
	Flush() error
	// Shutdown half-closes the write side if supported, then closes the
	// connection outright.
	Shutdown() error
	// NegotiatedProtocol returns the ALPN-negotiated protocol ("h2",
	// "http/1.1") for TLS connections, or "" for plaintext or when no
	// protocol was negotiated.
	NegotiatedProtocol() string
	// RemoteAddr mirrors net.Conn for diagnostics.
	RemoteAddr() net.Addr
	// Raw exposes the underlying net.Conn, for callers (the HTTP/2
	// handshake) that need the concrete stdlib type rather than this
	// package's uniform surface.
	Raw() net.Conn
}

// Dialer dials Addresses into Conns. The zero value dials real sockets;
// tests substitute a Dialer with a custom NetDialer.
type Dialer struct {
	// NetDialer is used for the raw socket dial. Defaults to a
	// *net.Dialer with a 30s dial timeout and 30s keep-alive when nil.
	NetDialer *net.Dialer
	// TLSConfig is cloned and amended with ServerName/NextProtos for
	// each TLS dial. Defaults to an empty *tls.Config when nil.
	TLSConfig *tls.Config
}

func (d *Dialer) netDialer() *net.Dialer {
	if d.NetDialer != nil {
		return d.NetDialer
	}
	return &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
}

// Dial connects to addr, returning a Conn of the appropriate variant.
func (d *Dialer) Dial(ctx context.Context, addr Address) (Conn, error) {
	network := string(addr.Network)
	if network == "" {
		network = string(NetworkTCP)
	}

	raw, err := d.netDialer().DialContext(ctx, network, addr.Addr)
	if err != nil {
		return nil, httperr.IO(err)
	}

	if addr.ServerName == "" {
		return &plainConn{Conn: raw}, nil
	}

	cfg := d.TLSConfig
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	cfg.ServerName = addr.ServerName
	if len(addr.NextProtos) > 0 {
		cfg.NextProtos = addr.NextProtos
	}

	tc := tls.Client(raw, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, httperr.TLS(err)
	}
	return &tlsConn{Conn: tc, state: tc.ConnectionState()}, nil
}

// plainConn wraps a TCP or Unix net.Conn with no TLS.
type plainConn struct {
	net.Conn
}

func (p *plainConn) Flush() error { return nil }

func (p *plainConn) Shutdown() error {
	if cw, ok := p.Conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	return p.Conn.Close()
}

func (p *plainConn) NegotiatedProtocol() string { return "" }

func (p *plainConn) Raw() net.Conn { return p.Conn }

// tlsConn wraps a *tls.Conn, exposing the ALPN-negotiated protocol.
type tlsConn struct {
	*tls.Conn
	state tls.ConnectionState
}

func (t *tlsConn) Flush() error { return nil }

func (t *tlsConn) Shutdown() error {
	_ = t.Conn.CloseWrite()
	return t.Conn.Close()
}

func (t *tlsConn) NegotiatedProtocol() string { return t.state.NegotiatedProtocol }

func (t *tlsConn) Raw() net.Conn { return t.Conn }
