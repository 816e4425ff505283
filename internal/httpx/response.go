package httpx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/harborlane/httpcore/internal/netx"
)

// ErrMalformedStatusLine and friends cover response head decode failures.
var (
	ErrMalformedStatusLine = errors.New("httpx: malformed status line")
	ErrInvalidStatusCode   = errors.New("httpx: invalid status code")
)

// Response represents a parsed (or to-be-serialized) HTTP/1.x response.
type Response struct {
	Proto      string // e.g. "HTTP/1.1" (defaults to "HTTP/1.1" if empty)
	ProtoMajor int
	ProtoMinor int
	StatusCode int       // e.g. 200
	Status     string    // e.g. "OK"
	Header     Header    // response headers
	Body       io.Reader // may be nil; used by WriteResponse only

	// NonCanonicalReason holds the reason phrase as received on the wire
	// when it differs from the canonical reason for StatusCode. Empty
	// when the phrase matched (or was never parsed from the wire).
	NonCanonicalReason string
}

// ReasonPhrase returns the phrase that should be written on the wire: the
// preserved non-canonical phrase if any, else Status if set, else the
// canonical one for StatusCode, else the numeric code as a string.
func (r *Response) ReasonPhrase() string {
	if r.NonCanonicalReason != "" {
		return r.NonCanonicalReason
	}
	if r.Status != "" {
		return r.Status
	}
	if text := http.StatusText(r.StatusCode); text != "" {
		return text
	}
	return strconv.Itoa(r.StatusCode)
}

// ParseResponse reads and parses a response status line and header block
// from r, classifying body framing per ClassifyFraming. It does not read
// the body; callers use the returned FramingKind/length to set up the
// appropriate body decoder (see internal/h1).
func ParseResponse(r *netx.CRLFFastReader, limits ParseLimits) (*Response, FramingKind, int64, error) {
	line, _, err := r.ReadLine(limits.MaxLineBytes)
	if err != nil {
		return nil, FramingNone, 0, fmt.Errorf("read status line: %w", err)
	}
	if len(line) == 0 {
		return nil, FramingNone, 0, ErrMalformedStatusLine
	}

	resp, err := parseStatusLine(string(line))
	if err != nil {
		return nil, FramingNone, 0, err
	}

	hdr, err := parseHeaderBlock(r, limits)
	if err != nil {
		return nil, FramingNone, 0, err
	}
	resp.Header = hdr

	kind, length, err := ClassifyFraming(hdr)
	if err != nil {
		return nil, FramingNone, 0, err
	}
	return resp, kind, length, nil
}

// parseStatusLine parses "HTTP/x.y SP code SP reason".
func parseStatusLine(line string) (*Response, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, ErrMalformedStatusLine
	}
	proto := parts[0]
	codeStr := parts[1]
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}

	if !strings.HasPrefix(proto, "HTTP/") {
		return nil, ErrMalformedStatusLine
	}
	ver := strings.TrimPrefix(proto, "HTTP/")
	dot := strings.IndexByte(ver, '.')
	if dot < 0 {
		return nil, ErrMalformedStatusLine
	}
	major, err1 := strconv.Atoi(ver[:dot])
	minor, err2 := strconv.Atoi(ver[dot+1:])
	if err1 != nil || err2 != nil {
		return nil, ErrMalformedStatusLine
	}

	code, err := strconv.Atoi(codeStr)
	if err != nil || code < 100 || code > 999 {
		return nil, ErrInvalidStatusCode
	}

	resp := &Response{
		Proto:      proto,
		ProtoMajor: major,
		ProtoMinor: minor,
		StatusCode: code,
		Status:     reason,
	}
	if canonical := http.StatusText(code); canonical != "" && reason != canonical {
		resp.NonCanonicalReason = reason
	}
	return resp, nil
}

// maxHeaderFields caps the distinct header keys accepted per head, on
// both the decode path and the request encoder's validation.
const maxHeaderFields = 96

// parseHeaderBlock reads header lines until a blank line, shared by
// request and response head decoding.
func parseHeaderBlock(r *netx.CRLFFastReader, limits ParseLimits) (Header, error) {
	h := make(Header)
	for {
		line, _, err := r.ReadLine(limits.MaxLineBytes)
		if err != nil {
			return nil, fmt.Errorf("read header line: %w", err)
		}
		if len(line) == 0 {
			return h, nil
		}
		i := indexByte(line, ':')
		if i <= 0 {
			return nil, ErrInvalidFieldName
		}
		key := CanonicalHeaderKey(string(line[:i]))
		val := strings.TrimSpace(string(line[i+1:]))
		h.Add(key, val)
		if len(h) > maxHeaderFields {
			return nil, ErrHeaderTooLarge
		}
	}
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// WriteResponse serializes an HTTP/1.x response (status line, headers, body)
// directly to w. It selects transfer semantics by inspecting headers, for
// callers (and tests) that want a one-shot write path. The client's own
// write pipeline (h1.Codec.SendRequest) does not use it; it encodes
// requests with EncodeRequestHead.
func WriteResponse(ctx context.Context, w io.Writer, resp *Response) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	bw := bufio.NewWriter(w)
	if err := WriteResponseHead(bw, resp); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if resp.Body == nil {
		return nil
	}

	if clStr := resp.Header.Get("Content-Length"); clStr != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(clStr), 10, 64)
		if err != nil || n < 0 {
			return ErrLengthMismatch
		}
		if _, err := io.CopyN(bw, resp.Body, n); err != nil {
			return err
		}
		return bw.Flush()
	}

	if strings.EqualFold(resp.Header.Get("Transfer-Encoding"), "chunked") {
		cw := NewChunkedWriter(bw)
		if _, err := io.Copy(cw, resp.Body); err != nil {
			_ = cw.Close()
			return err
		}
		if err := cw.Close(); err != nil {
			return err
		}
		return bw.Flush()
	}

	if _, err := io.Copy(bw, resp.Body); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteResponseHead writes the status line and header block (through the
// blank line) to w, with the reason phrase chosen by ReasonPhrase.
func WriteResponseHead(w io.Writer, resp *Response) error {
	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}

	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", proto, resp.StatusCode, resp.ReasonPhrase()); err != nil {
		return err
	}

	for k, vals := range resp.Header {
		ck := CanonicalHeaderKey(k)
		for _, v := range vals {
			if _, err := io.WriteString(w, ck+": "+v+"\r\n"); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
