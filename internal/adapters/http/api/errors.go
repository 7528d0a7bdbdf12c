package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMissingUser      = errors.New("missing X-User-ID header")
	ErrMethodNotAllowed = errors.New("method not allowed")
)
