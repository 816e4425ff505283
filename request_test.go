package httpcore

import (
	"context"
	"io"
	"testing"

	"github.com/harborlane/httpcore/internal/httpx"
)

func TestNewRequestRejectsMissingHost(t *testing.T) {
	if _, err := NewRequest("GET", "/just/a/path"); err == nil {
		t.Fatal("expected error for a URL with no host")
	}
}

func TestSetBytesFixedBody(t *testing.T) {
	req, err := NewRequest("POST", "http://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	req.SetBytes([]byte("hello"))

	if req.BodyHint() != httpx.HintFixed {
		t.Fatalf("hint = %v, want HintFixed", req.BodyHint())
	}
	if req.FixedLen() != 5 {
		t.Fatalf("fixed len = %d, want 5", req.FixedLen())
	}
	data, err := req.Body().NextData(context.Background())
	if err != nil {
		t.Fatalf("NextData: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("body = %q, want %q", data, "hello")
	}
}

func TestSetJSONSetsContentType(t *testing.T) {
	req, err := NewRequest("POST", "http://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	if err := req.SetJSON(map[string]int{"n": 1}); err != nil {
		t.Fatal(err)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q, want application/json", ct)
	}
}

func TestStreamWriterFeedsChunksThenEOF(t *testing.T) {
	req, err := NewRequest("POST", "http://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	sw := req.SetStream()
	if req.BodyHint() != httpx.HintStream {
		t.Fatalf("hint = %v, want HintStream", req.BodyHint())
	}

	go func() {
		sw.Write([]byte("chunk1"))
		sw.Write([]byte("chunk2"))
		sw.Close()
	}()

	ctx := context.Background()
	var got []byte
	for {
		data, err := req.Body().NextData(ctx)
		got = append(got, data...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextData: %v", err)
		}
	}
	if string(got) != "chunk1chunk2" {
		t.Fatalf("got %q, want %q", got, "chunk1chunk2")
	}
}

func TestStreamWriterCloseWithError(t *testing.T) {
	req, err := NewRequest("POST", "http://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	sw := req.SetStream()
	wantErr := io.ErrClosedPipe

	go func() {
		sw.Write([]byte("partial"))
		sw.CloseWithError(wantErr)
	}()

	ctx := context.Background()
	for {
		_, err := req.Body().NextData(ctx)
		if err == nil {
			continue
		}
		if err != wantErr {
			t.Fatalf("got err %v, want %v", err, wantErr)
		}
		break
	}
}
