package transport

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestDialPlainTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	echoed := make(chan []byte, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 16)
		n, _ := c.Read(buf)
		echoed <- buf[:n]
	}()

	d := &Dialer{}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := d.Dial(ctx, Address{Network: NetworkTCP, Addr: ln.Addr().String()})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if conn.NegotiatedProtocol() != "" {
		t.Fatalf("plaintext dial negotiated %q", conn.NegotiatedProtocol())
	}
	if conn.Raw() == nil {
		t.Fatal("Raw must expose the underlying net.Conn")
	}

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	select {
	case got := <-echoed:
		if string(got) != "ping" {
			t.Fatalf("server read %q, want ping", got)
		}
	case <-time.After(time.Second):
		t.Fatal("server never received the write")
	}

	if err := conn.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestDialDefaultsToTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	d := &Dialer{}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := d.Dial(ctx, Address{Addr: ln.Addr().String()})
	if err != nil {
		t.Fatalf("Dial with empty network: %v", err)
	}
	conn.Shutdown()
}
