// Package multipart is a minimal encode-only multipart/form-data writer
// for attaching fields and files to an outgoing httpcore.Request body.
// Parsing an inbound form is not something a request-sending client
// needs, so there is no decoder here.
package multipart

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"

	"github.com/harborlane/httpcore"
)

// Writer builds a multipart/form-data body by streaming encoded parts
// directly into a request's StreamWriter, so a large file attachment
// never has to sit fully buffered in memory the way a Fixed body would
// force it to.
type Writer struct {
	mw *multipart.Writer
	w  io.Writer
}

// NewWriter wraps dst (typically an httpcore StreamWriter) as a
// multipart encoder. ContentType reports the value to set on the
// request's Content-Type header, including the generated boundary.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{mw: multipart.NewWriter(dst), w: dst}
}

// ContentType returns the multipart/form-data content type, including
// the boundary parameter, to set as the request's Content-Type header.
func (w *Writer) ContentType() string {
	return w.mw.FormDataContentType()
}

// WriteField encodes a plain form field.
func (w *Writer) WriteField(name, value string) error {
	return w.mw.WriteField(name, value)
}

// WriteFile encodes filename as the named field's attached file,
// copying data from src. The caller is responsible for closing src.
func (w *Writer) WriteFile(fieldName, filename, contentType string, src io.Reader) error {
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name=%q; filename=%q`, fieldName, filename))
	if contentType == "" {
		contentType = mime.TypeByExtension(extOf(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)

	part, err := w.mw.CreatePart(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}

// Close finalizes the multipart body by writing its terminating
// boundary, then closes the underlying destination if it implements
// io.Closer. For an httpcore StreamWriter destination, this is the
// same call that signals end-of-body to the send path.
func (w *Writer) Close() error {
	if err := w.mw.Close(); err != nil {
		return err
	}
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func extOf(filename string) string {
	for i := len(filename) - 1; i >= 0 && filename[i] != '/'; i-- {
		if filename[i] == '.' {
			return filename[i:]
		}
	}
	return ""
}

// AttachTo attaches a new multipart body to req, returning the Writer to
// encode parts into. The caller must call Close on the returned Writer
// once all fields/files are written; that both finalizes the multipart
// trailer and signals end-of-body to the send path. The request's
// Content-Type header is set automatically.
func AttachTo(req *httpcore.Request) *Writer {
	sw := req.SetStream()
	w := NewWriter(sw)
	req.SetHeader("Content-Type", w.ContentType())
	return w
}
