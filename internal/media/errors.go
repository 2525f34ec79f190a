package media

import "errors"

var (
	ErrNotFound        = errors.New("attachment not found")
	ErrInvalidID       = errors.New("invalid attachment id")
	ErrInvalidMetadata = errors.New("invalid attachment metadata")
)
