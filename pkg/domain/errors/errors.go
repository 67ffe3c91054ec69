package errors

import "errors"

var (
	// requested record does not exist.
	ErrMissing = errors.New("missing")

	// records are found more than expected.
	ErrTooMuch = errors.New("too much")

	// a record with the same identity already exists.
	ErrAlreadyExists = errors.New("already exists")
)
