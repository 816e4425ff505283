// Package h2 implements the HTTP/2 send path and the request body pump
// on top of golang.org/x/net/http2, which owns the frame codec, HPACK,
// and flow-control engine.
package h2

import (
	"net"
	"net/http"

	"golang.org/x/net/http2"

	"github.com/harborlane/httpcore/internal/httperr"
	"github.com/harborlane/httpcore/internal/logging"
)

// SharedSender is a cloneable send-request handle: each clone is an
// independent submission handle over the same multiplexed connection.
// x/net/http2's *http2.ClientConn is already safe for concurrent
// RoundTrips, so Clone is a cheap wrapper rather than a new dial;
// clones submit independent streams over the same socket.
type SharedSender struct {
	cc  *http2.ClientConn
	log logging.Logger
}

// Handshake performs the client-side HTTP/2 connection setup over an
// already-dialed, already-negotiated (or prior-knowledge cleartext)
// net.Conn, returning a SharedSender. The caller is responsible for
// having picked HTTP/2 (via ALPN or configuration).
func Handshake(conn net.Conn, log logging.Logger) (*SharedSender, error) {
	t := &http2.Transport{AllowHTTP: true}
	cc, err := t.NewClientConn(conn)
	if err != nil {
		return nil, httperr.H2(httperr.KindProtocol, err)
	}
	return &SharedSender{cc: cc, log: log}, nil
}

// Clone returns an independent submission handle sharing the same
// underlying multiplexed connection.
func (s *SharedSender) Clone() *SharedSender {
	return &SharedSender{cc: s.cc, log: s.log}
}

// CanTakeNewRequest reports whether this connection may accept another
// stream, and doubles as the pool's liveness probe for whether the peer
// has gone away (GOAWAY observed).
func (s *SharedSender) CanTakeNewRequest() bool {
	return s.cc.CanTakeNewRequest()
}

// RoundTrip submits req and blocks for the response head (with a
// receive-body the caller drains separately), delegating all flow
// control, HPACK, and frame sequencing to x/net/http2.
func (s *SharedSender) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.cc.RoundTrip(req)
	if err != nil {
		return nil, classifyH2Error(err)
	}
	return resp, nil
}

func classifyH2Error(err error) error {
	if se, ok := err.(http2.StreamError); ok {
		return httperr.H2(httperr.KindStream, se)
	}
	if ge, ok := err.(http2.GoAwayError); ok {
		return httperr.H2(httperr.KindGoAway, ge)
	}
	return httperr.H2(httperr.KindProtocol, err)
}
