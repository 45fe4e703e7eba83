package packet

import "errors"

var (
	// ErrUnsupported is returned when asking a message without a wire
	// type for its type byte.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrMalformed is returned for input that does not decode exactly
	// into the expected structure.
	ErrMalformed = errors.New("malformed message")
)
