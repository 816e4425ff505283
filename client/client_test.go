package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	httpcore "github.com/harborlane/httpcore"
	"github.com/harborlane/httpcore/internal/httpx"
)

// serveOnce accepts a single connection on ln and writes resp as the raw
// bytes of its response, after reading (and discarding) one request line
// plus headers. It reports each accepted connection on accepted, so tests
// can assert on pool reuse (one dial vs. two).
func serveOnce(t *testing.T, ln net.Listener, resp string, accepted chan<- net.Conn) {
	t.Helper()
	c, err := ln.Accept()
	if err != nil {
		return
	}
	accepted <- c
	br := bufio.NewReader(c)
	for {
		line, err := br.ReadString('\n')
		if err != nil || line == "\r\n" {
			break
		}
	}
	c.Write([]byte(resp))
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	return ln
}

func TestClientDoSimpleGET(t *testing.T) {
	ln := listen(t)
	accepted := make(chan net.Conn, 4)
	go serveOnce(t, ln, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok", accepted)

	c := New()
	defer c.Close()

	req, err := httpcore.NewRequest("GET", "http://"+ln.Addr().String()+"/")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.Do(ctx, req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := resp.Text(ctx)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if body != "ok" {
		t.Fatalf("body = %q, want %q", body, "ok")
	}
}

func TestClientReusesPooledConnection(t *testing.T) {
	ln := listen(t)
	accepted := make(chan net.Conn, 4)
	go func() {
		// Each accepted connection serves any number of requests, so a
		// pooled codec's second exchange is answered on the same socket;
		// every accept is reported so the test can count dials.
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			accepted <- c
			go func(c net.Conn) {
				br := bufio.NewReader(c)
				for {
					for {
						line, err := br.ReadString('\n')
						if err != nil {
							return
						}
						if line == "\r\n" {
							break
						}
					}
					fmt.Fprintf(c, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok")
				}
			}(c)
		}
	}()

	c := New()
	defer c.Close()

	url := "http://" + ln.Addr().String() + "/"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		req, err := httpcore.NewRequest("GET", url)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := c.Do(ctx, req)
		if err != nil {
			t.Fatalf("Do #%d: %v", i, err)
		}
		if _, err := resp.Bytes(ctx); err != nil {
			t.Fatalf("Bytes #%d: %v", i, err)
		}
		// Draining to EOF releases the codec back to the pool before
		// Bytes returns, so the next iteration observes a pool hit.
		resp.Close()
	}

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatal("expected at least one accepted connection")
	}
	select {
	case c := <-accepted:
		t.Fatalf("expected the pool to reuse the first connection, but a second was dialed: %v", c.RemoteAddr())
	default:
	}
}

func TestClientConnectionCloseNotPooled(t *testing.T) {
	ln := listen(t)
	accepted := make(chan net.Conn, 4)
	go func() {
		for i := 0; i < 2; i++ {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			accepted <- c
			br := bufio.NewReader(c)
			for {
				line, err := br.ReadString('\n')
				if err != nil || line == "\r\n" {
					break
				}
			}
			fmt.Fprintf(c, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\nConnection: close\r\n\r\nok")
		}
	}()

	c := New()
	defer c.Close()

	url := "http://" + ln.Addr().String() + "/"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		req, err := httpcore.NewRequest("GET", url)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := c.Do(ctx, req)
		if err != nil {
			t.Fatalf("Do #%d: %v", i, err)
		}
		if _, err := resp.Bytes(ctx); err != nil {
			t.Fatalf("Bytes #%d: %v", i, err)
		}
		resp.Close()
	}

	for i := 0; i < 2; i++ {
		select {
		case <-accepted:
		case <-time.After(time.Second):
			t.Fatalf("expected two fresh dials since Connection:close forbids pooling, only got %d", i)
		}
	}
}

func TestClassifyH1Reusable(t *testing.T) {
	mk := func(major, minor int, connection string) *httpx.Response {
		h := httpx.Header{}
		if connection != "" {
			h.Set("Connection", connection)
		}
		return &httpx.Response{ProtoMajor: major, ProtoMinor: minor, Header: h}
	}

	tests := []struct {
		name string
		resp *httpx.Response
		want bool
	}{
		{"1.1 no header", mk(1, 1, ""), true},
		{"1.1 close", mk(1, 1, "close"), false},
		{"1.1 close mixed case", mk(1, 1, "Close"), false},
		{"1.0 no header", mk(1, 0, ""), false},
		{"1.0 keep-alive", mk(1, 0, "keep-alive"), true},
	}
	for _, tt := range tests {
		if got := classifyH1Reusable(tt.resp); got != tt.want {
			t.Fatalf("%s: reusable = %v, want %v", tt.name, got, tt.want)
		}
	}
}
