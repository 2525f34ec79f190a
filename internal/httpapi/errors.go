package httpapi

import "errors"

var (
	ErrMissingID      = errors.New("missing attachment id")
	ErrQueueDisabled  = errors.New("queue is not configured")
	ErrMissingRenamer = errors.New("renamer is required")
)
