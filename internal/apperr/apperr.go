// Package apperr holds the error taxonomy shared by the catalog client and the
// local stores. Callers match with errors.Is.
package apperr

import "errors"

var (
	// ErrUnauthenticated means no access token was available, or the catalog
	// rejected the one we sent.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrTransport covers network failures and non-success API responses.
	ErrTransport = errors.New("transport failure")

	// ErrDecode means a response body or persisted value could not be decoded.
	ErrDecode = errors.New("malformed data")

	// ErrNotFound is returned for lookups of ids that don't exist. Removals of
	// missing ids are silent no-ops and never return it.
	ErrNotFound = errors.New("not found")
)
