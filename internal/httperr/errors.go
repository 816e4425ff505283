// Package httperr defines the single error taxonomy surfaced to callers
// of the client core: FromURI, IO, Encode, Decode, Payload, H2, and TLS,
// each carrying a Kind discriminant.
package httperr

import (
	"errors"
	"fmt"
)

// Category names the top-level error family.
type Category string

const (
	CategoryFromURI Category = "from_uri"
	CategoryIO      Category = "io"
	CategoryEncode  Category = "encode"
	CategoryDecode  Category = "decode"
	CategoryPayload Category = "payload"
	CategoryH2      Category = "h2"
	CategoryTLS     Category = "tls"
)

// Kind is a category-specific discriminant, e.g. KindParse or
// KindChunked within CategoryDecode.
type Kind string

const (
	KindUnsupportedScheme Kind = "unsupported_scheme"
	KindNoAuthority       Kind = "no_authority"
	KindInvalidDNSName    Kind = "invalid_dns_name"

	KindPayloadTooLarge Kind = "payload_too_large"

	KindParse         Kind = "parse"
	KindMethod        Kind = "method"
	KindURI           Kind = "uri"
	KindStatus        Kind = "status"
	KindHeader        Kind = "header"
	KindChunked       Kind = "chunked"
	KindIO            Kind = "io"
	KindUnexpectedEOF Kind = "unexpected_eof"

	KindProtocol Kind = "protocol"
	KindStream   Kind = "stream"
	KindGoAway   Kind = "go_away"
)

// Error is the concrete error type returned across the client core's
// public surface. Category plus Kind identify the failure; Err wraps the
// underlying cause when one exists.
type Error struct {
	Category Category
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Kind != "" {
			return fmt.Sprintf("httpcore: %s(%s): %v", e.Category, e.Kind, e.Err)
		}
		return fmt.Sprintf("httpcore: %s: %v", e.Category, e.Err)
	}
	if e.Kind != "" {
		return fmt.Sprintf("httpcore: %s(%s)", e.Category, e.Kind)
	}
	return fmt.Sprintf("httpcore: %s", e.Category)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports category+kind equality, ignoring the wrapped cause, so
// callers can do errors.Is(err, httperr.New(httperr.CategoryDecode, httperr.KindChunked, nil)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Category != "" && t.Category != e.Category {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return true
}

// New builds an *Error.
func New(cat Category, kind Kind, cause error) *Error {
	return &Error{Category: cat, Kind: kind, Err: cause}
}

// FromURI builds a pre-flight URI classification error (no I/O occurred).
func FromURI(kind Kind, cause error) *Error { return New(CategoryFromURI, kind, cause) }

// IO wraps a transport failure; the caller must treat the owning
// connection as not reusable.
func IO(cause error) *Error { return New(CategoryIO, "", cause) }

// Encode wraps a request serialization failure.
func Encode(kind Kind, cause error) *Error { return New(CategoryEncode, kind, cause) }

// Decode wraps a response parse/frame failure.
func Decode(kind Kind, cause error) *Error { return New(CategoryDecode, kind, cause) }

// Payload wraps a body-channel error surfaced to a body consumer.
func Payload(kind Kind, cause error) *Error { return New(CategoryPayload, kind, cause) }

// H2 wraps an HTTP/2 subsystem failure (protocol, stream reset, GOAWAY).
func H2(kind Kind, cause error) *Error { return New(CategoryH2, kind, cause) }

// TLS wraps a handshake failure.
func TLS(cause error) *Error { return New(CategoryTLS, "", cause) }

// As is a thin re-export of errors.As for callers that don't want to
// import both packages.
func As(err error, target any) bool { return errors.As(err, target) }
