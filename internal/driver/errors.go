package driver

import "errors"

var (
	ErrQueueNil       = errors.New("queue is nil")
	ErrRenamerNil     = errors.New("renamer is nil")
	ErrInvalidQueueID = errors.New("invalid attachment id in queue")
	ErrRunAborted     = errors.New("run aborted after a failed attachment")
	ErrRequeueFailed  = errors.New("failed to requeue attachment id")
)
