package conn

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/harborlane/httpcore/internal/body"
	"github.com/harborlane/httpcore/internal/h1"
	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/transport"
)

// fakeConn adapts a net.Conn (typically one end of a net.Pipe) to
// transport.Conn, so these tests can drive a real *h1.Codec without
// dialing a socket.
type fakeConn struct{ net.Conn }

func (c fakeConn) Flush() error               { return nil }
func (c fakeConn) Shutdown() error            { return c.Conn.Close() }
func (c fakeConn) NegotiatedProtocol() string { return "" }
func (c fakeConn) Raw() net.Conn              { return c.Conn }

var _ transport.Conn = fakeConn{}

func TestH1SendRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		buf := make([]byte, 4096)
		n, _ := server.Read(buf)
		_ = n // request consumed; its exact bytes aren't asserted here
		server.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	}()

	codec := h1.NewCodec(fakeConn{client}, h1.Config{Limits: httpx.ParseLimits{MaxLineBytes: 4096}})
	h1c := NewH1(codec)

	req := &httpx.Request{}
	req.Method = "GET"
	req.Proto = "HTTP/1.1"
	req.ProtoMajor, req.ProtoMinor = 1, 1
	req.Header = httpx.Header{}
	req.URL = &httpx.URL{Path: "/"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, respBody, done, err := h1c.Send(ctx, req, body.None{}, 0)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got bytes.Buffer
	for {
		chunk, err := respBody.NextData(ctx)
		got.Write(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextData: %v", err)
		}
	}
	if got.String() != "hello" {
		t.Fatalf("body = %q, want %q", got.String(), "hello")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("drain error: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for done channel")
	}
}

func TestH1SendNoBodyIsImmediateEOF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		buf := make([]byte, 4096)
		server.Read(buf)
		server.Write([]byte("HTTP/1.1 204 No Content\r\n\r\n"))
	}()

	codec := h1.NewCodec(fakeConn{client}, h1.Config{Limits: httpx.ParseLimits{MaxLineBytes: 4096}})
	h1c := NewH1(codec)

	req := &httpx.Request{}
	req.Method = "GET"
	req.Proto = "HTTP/1.1"
	req.ProtoMajor, req.ProtoMinor = 1, 1
	req.Header = httpx.Header{}
	req.URL = &httpx.URL{Path: "/"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, respBody, done, err := h1c.Send(ctx, req, body.None{}, 0)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.StatusCode != 204 {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if _, err := respBody.NextData(ctx); err != io.EOF {
		t.Fatalf("expected immediate EOF, got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected drain error: %v", err)
	}
}
