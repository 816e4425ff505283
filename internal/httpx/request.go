package httpx

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harborlane/httpcore/internal/netx"
)

// ErrInvalidMethod covers request-line method failures; the decode kind
// classifier maps it separately from generic parse errors.
var ErrInvalidMethod = errors.New("httpx: invalid method")

// requestLine models the first line of an HTTP/1.x request.
type requestLine struct {
	Method     string
	RequestURI string
	Proto      string
	ProtoMajor int
	ProtoMinor int
}

// String returns the serialized form of the request line.
func (r requestLine) String() string {
	return fmt.Sprintf("%s %s %s", r.Method, r.RequestURI, r.Proto)
}

// Request represents an HTTP/1.x request head, either parsed off the
// wire or built by the client façade for encoding.
type Request struct {
	requestLine
	URL    *URL
	Header Header
	Host   string
}

// ParseLimits controls how many bytes can be read from a request line or headers.
type ParseLimits struct {
	MaxLineBytes   int
	MaxHeaderBytes int
}

// ParseRequest reads and parses a request head (request line plus header
// block) from r. The body, if any, is left unread in r's buffer; callers
// classify framing via ClassifyFraming on the returned header.
func ParseRequest(r *netx.CRLFFastReader, limits ParseLimits) (*Request, error) {
	line, _, err := r.ReadLine(limits.MaxLineBytes)
	if err != nil {
		return nil, fmt.Errorf("read request line: %w", err)
	}
	if len(line) == 0 {
		return nil, errors.New("empty request line")
	}

	rl, err := parseRequestLine(string(line))
	if err != nil {
		return nil, err
	}

	u, err := ParseRequestURI(rl.RequestURI)
	if err != nil {
		return nil, err
	}

	hdr, err := parseHeaderBlock(r, limits)
	if err != nil {
		return nil, err
	}

	req := &Request{
		requestLine: rl,
		URL:         u,
		Header:      hdr,
	}

	// Absolute-form URI wins over the Host header field.
	switch {
	case u.Host != "":
		req.Host = strings.ToLower(u.Host)
	case hdr.Has("Host"):
		req.Host = strings.ToLower(hdr.Get("Host"))
	}

	return req, nil
}

// parseRequestLine parses "METHOD SP Request-URI SP HTTP/x.y".
func parseRequestLine(line string) (rl requestLine, err error) {
	// Be tolerant of multiple spaces or tabs.
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return rl, fmt.Errorf("malformed request line: %q", line)
	}

	method := parts[0]
	target := parts[1]
	proto := parts[2]

	if len(method) == 0 || len(method) > 20 {
		return rl, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	for _, c := range method {
		if c < 'A' || c > 'Z' {
			return rl, fmt.Errorf("%w: must be uppercase A-Z: %q", ErrInvalidMethod, method)
		}
	}

	if !strings.HasPrefix(proto, "HTTP/") {
		return rl, fmt.Errorf("invalid protocol: %q", proto)
	}
	ver := strings.TrimPrefix(proto, "HTTP/")
	dot := strings.IndexByte(ver, '.')
	if dot < 0 {
		return rl, fmt.Errorf("invalid HTTP version: %q", proto)
	}
	major, err1 := strconv.Atoi(ver[:dot])
	minor, err2 := strconv.Atoi(ver[dot+1:])
	if err1 != nil || err2 != nil {
		return rl, fmt.Errorf("invalid HTTP version numbers: %q", proto)
	}

	rl = requestLine{
		Method:     method,
		RequestURI: target,
		Proto:      proto,
		ProtoMajor: major,
		ProtoMinor: minor,
	}
	return rl, nil
}

// String returns a human-readable representation of the request line.
func (r *Request) String() string {
	if r == nil {
		return "<nil request>"
	}
	return r.requestLine.String()
}

// target returns the request-target to place on the wire: path plus an
// optional "?query", defaulting to "/" when the request has no URL.
func (r *Request) target() string {
	if r.URL == nil {
		return "/"
	}
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	if r.URL.RawQuery != "" {
		return path + "?" + r.URL.RawQuery
	}
	return path
}

// effectiveProto returns Proto, defaulting to "HTTP/1.1" when unset (the
// encoder's counterpart to the decoder's "HTTP/1.0 if stated, else
// HTTP/1.1" default).
func (r *Request) effectiveProto() string {
	if r.Proto != "" {
		return r.Proto
	}
	return "HTTP/1.1"
}

// EncodeRequestHead serializes the request line, a framing header derived
// from hint, and the caller's user headers (excluding Content-Length and
// Transfer-Encoding, which the framing header alone controls). It does
// not write the body; see internal/h1 for the body write pipeline.
func EncodeRequestHead(w io.Writer, req *Request, hint StreamHint, fixedLen int64) error {
	if err := ValidateHeader(req.Header, HeaderLimits{MaxFields: maxHeaderFields}); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s %s %s\r\n", req.Method, req.target(), req.effectiveProto()); err != nil {
		return err
	}

	switch hint {
	case HintNone:
		if req.Header.Has("Content-Length") || req.Header.Has("Transfer-Encoding") {
			if _, err := io.WriteString(w, "Content-Length: 0\r\n"); err != nil {
				return err
			}
		}
	case HintFixed:
		if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n", fixedLen); err != nil {
			return err
		}
	case HintStream:
		if _, err := io.WriteString(w, "Transfer-Encoding: chunked\r\n"); err != nil {
			return err
		}
	}

	for k, vals := range req.Header {
		ck := CanonicalHeaderKey(k)
		if ck == "Content-Length" || ck == "Transfer-Encoding" {
			continue
		}
		for _, v := range vals {
			if _, err := io.WriteString(w, ck+": "+v+"\r\n"); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(w, "\r\n")
	return err
}
