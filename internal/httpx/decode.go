package httpx

import (
	"errors"
	"io"

	"github.com/harborlane/httpcore/internal/httperr"
)

// DecodeKind maps this package's sentinel errors onto the decode kinds
// of the client error taxonomy, so the read pipeline can classify a
// head-parse failure without re-inspecting wire state.
//
// ErrLengthMismatch classifies as a header problem here because at head
// scope it means a Content-Length value that failed to parse; the body
// pipeline maps the same sentinel to an unexpected-EOF kind, where it
// means a short body.
func DecodeKind(err error) httperr.Kind {
	switch {
	case errors.Is(err, ErrInvalidMethod):
		return httperr.KindMethod
	case errors.Is(err, ErrInvalidRequestURI):
		return httperr.KindURI
	case errors.Is(err, ErrInvalidStatusCode):
		return httperr.KindStatus
	case errors.Is(err, ErrInvalidFieldName),
		errors.Is(err, ErrInvalidValue),
		errors.Is(err, ErrHeaderTooLarge),
		errors.Is(err, ErrKeyTooLarge),
		errors.Is(err, ErrValueTooLarge),
		errors.Is(err, ErrTotalValuesTooLarge),
		errors.Is(err, ErrLengthMismatch):
		return httperr.KindHeader
	case errors.Is(err, ErrBadChunk), errors.Is(err, ErrUnexpectedTrailer):
		return httperr.KindChunked
	case errors.Is(err, ErrBodyTooLarge):
		return httperr.KindPayloadTooLarge
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return httperr.KindUnexpectedEOF
	default:
		return httperr.KindParse
	}
}
