package wellness

import "errors"

var (
	// ErrMalformedResponse means the generated text could not be decoded into any recommendation
	ErrMalformedResponse = errors.New("malformed generated response")

	// ErrSourceUnavailable means a domain source failed or timed out
	ErrSourceUnavailable = errors.New("domain source unavailable")

	// ErrPersistenceWrite means a result could not be stored
	ErrPersistenceWrite = errors.New("persistence write failed")

	// ErrNotFound means no stored result exists for the key
	ErrNotFound = errors.New("result not found")
)
