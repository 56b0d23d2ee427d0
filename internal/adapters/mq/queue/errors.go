package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("vote queue full")
	ErrClosed = errors.New("vote queue closed")
)
