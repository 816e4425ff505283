package multipart

import (
	"bytes"
	"mime"
	"mime/multipart"
	"strings"
	"testing"
)

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteField("name", "gopher"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := w.WriteFile("avatar", "pic.png", "", strings.NewReader("binarydata")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, params, err := mime.ParseMediaType(w.ContentType())
	if err != nil {
		t.Fatalf("ParseMediaType: %v", err)
	}
	boundary, ok := params["boundary"]
	if !ok {
		t.Fatal("content type missing boundary parameter")
	}

	mr := multipart.NewReader(&buf, boundary)
	form, err := mr.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	if got := form.Value["name"]; len(got) != 1 || got[0] != "gopher" {
		t.Fatalf("field name = %v, want [gopher]", got)
	}
	files := form.File["avatar"]
	if len(files) != 1 || files[0].Filename != "pic.png" {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestWriteFileDefaultsContentType(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteFile("f", "data.bin", "", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	_, params, _ := mime.ParseMediaType(w.ContentType())
	mr := multipart.NewReader(&buf, params["boundary"])
	form, err := mr.ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	fh := form.File["f"][0]
	if ct := fh.Header.Get("Content-Type"); ct != "application/octet-stream" {
		t.Fatalf("content type = %q, want application/octet-stream", ct)
	}
}
