// Package httpcore is a dual-protocol (HTTP/1.1 and HTTP/2) asynchronous
// HTTP client core. It exposes the request/response builder types; the
// client façade that actually dials connections and dispatches exchanges
// lives in the client subpackage.
//
// httpcore itself never dials anything; it only builds the
// Request/Response value types the client subpackage sends and returns.
package httpcore

import "github.com/harborlane/httpcore/internal/httperr"

// Error is the error type returned across the client surface,
// re-exported so callers don't need to import an internal package to use
// errors.As/errors.Is against it.
type Error = httperr.Error

// Category and Kind name the fields on Error; re-exported the same way.
type (
	Category = httperr.Category
	Kind     = httperr.Kind
)

const (
	CategoryFromURI = httperr.CategoryFromURI
	CategoryIO      = httperr.CategoryIO
	CategoryEncode  = httperr.CategoryEncode
	CategoryDecode  = httperr.CategoryDecode
	CategoryPayload = httperr.CategoryPayload
	CategoryH2      = httperr.CategoryH2
	CategoryTLS     = httperr.CategoryTLS
)
