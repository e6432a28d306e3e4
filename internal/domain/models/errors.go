package models

import "errors"

// Caller-facing error taxonomy. Handlers map these to HTTP responses; every
// other failure is absorbed at its component boundary.
var (
	ErrInvalidRisk         = errors.New("risk parameters out of range")
	ErrInvalidQuote        = errors.New("malformed quote")
	ErrNotFound            = errors.New("trade not found")
	ErrAlreadyClosed       = errors.New("trade already closed")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrConnectionExhausted = errors.New("stream reconnect attempts exhausted")
)
