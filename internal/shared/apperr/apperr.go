// Package apperr defines the sentinel errors shared across the ingestion
// pipeline and the analysis services. Handlers translate these to HTTP
// statuses in exactly one place (respond.FromError); services wrap them
// with %w so callers can test with errors.Is.
package apperr

import "errors"

var (
	// ErrUnsupportedFormat is returned when an upload's extension is not
	// one of the supported resume formats. Raised before any external call.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrExtractionFailed is returned when a supported format cannot be
	// decoded. The wrapped cause carries the decoder detail.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrMalformedProviderResponse is returned when the model reply is
	// missing the required top-level structure.
	ErrMalformedProviderResponse = errors.New("malformed provider response")

	// ErrPersistenceFailed is returned when a multi-step write fails partway.
	// Earlier steps are not rolled back; the caller re-requests.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the request carries no usable identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller is not the owner of the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrInsufficientCredits is returned when a credit-gated service cannot
	// consume a credit for the caller.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrApplicationLimit is returned when a free user is at the
	// application cap and tries to create another one.
	ErrApplicationLimit = errors.New("application limit reached")

	// ErrProviderTimeout is returned when a model call exceeds its budget.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrInvalidInput is returned for malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
)
