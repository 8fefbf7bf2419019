package common

import "errors"

var (
	// ErrInvalidInput marks malformed requests such as bad limits or an
	// unsupported upload format.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSourceFetch marks one URL or upload that could not be retrieved or
	// decoded. It never aborts a batch.
	ErrSourceFetch = errors.New("source fetch failed")
	// ErrQueryNotFound is returned for unknown or evicted query ids.
	ErrQueryNotFound = errors.New("query not found")
)
