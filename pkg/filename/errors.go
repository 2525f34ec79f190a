package filename

import "errors"

var (
	// ErrFailedToReadTable is returned when the substitution file cannot be read.
	ErrFailedToReadTable = errors.New("failed to read substitution table")
	// ErrInvalidTable is returned when the substitution file cannot be parsed
	// or contains an entry with an empty "from" value.
	ErrInvalidTable = errors.New("invalid substitution table")
)
