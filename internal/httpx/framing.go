package httpx

import (
	"strconv"
	"strings"
)

// FramingKind classifies how a message body is delimited on the wire.
type FramingKind int

const (
	FramingNone FramingKind = iota
	FramingFixed
	FramingChunked
)

// StreamHint discriminates a body's shape without requiring the caller to
// inspect its contents: no bytes, a known-length single delivery, or an
// unbounded sequence of chunks.
type StreamHint int

const (
	HintNone StreamHint = iota
	HintFixed
	HintStream
)

func (h StreamHint) String() string {
	switch h {
	case HintFixed:
		return "fixed"
	case HintStream:
		return "stream"
	default:
		return "none"
	}
}

// ClassifyFraming applies the framing rules shared by request and response
// decoding:
//
//  1. Transfer-Encoding present and (case-insensitively) "chunked" -> chunked.
//     "identity" falls through to rule 2. Anything else is malformed.
//  2. Content-Length present -> must be an unsigned decimal (no leading '+');
//     length 0 -> no body, otherwise fixed body of that length.
//  3. Otherwise -> no body.
func ClassifyFraming(h Header) (kind FramingKind, length int64, err error) {
	if te := h.Get("Transfer-Encoding"); te != "" {
		switch {
		case strings.EqualFold(te, "chunked"):
			return FramingChunked, -1, nil
		case strings.EqualFold(te, "identity"):
			// fall through to Content-Length handling
		default:
			return FramingNone, 0, ErrBadChunk
		}
	}

	if cl := h.Get("Content-Length"); cl != "" {
		if strings.HasPrefix(cl, "+") {
			return FramingNone, 0, ErrLengthMismatch
		}
		n, perr := strconv.ParseUint(strings.TrimSpace(cl), 10, 63)
		if perr != nil {
			return FramingNone, 0, ErrLengthMismatch
		}
		if n == 0 {
			return FramingNone, 0, nil
		}
		return FramingFixed, int64(n), nil
	}

	return FramingNone, 0, nil
}
