package dataset

import "errors"

// Sentinel kinds for dataset file errors.
var (
	ErrLocked      = errors.New("dataset file is locked")
	ErrDecode      = errors.New("cannot decode dataset")
	ErrEmptyPath   = errors.New("dataset path is empty")
	ErrWatchActive = errors.New("watcher already running")
)
