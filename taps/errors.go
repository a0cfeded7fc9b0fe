package taps

import "errors"

var (
	// ErrInvalidDirectory raised if the specified path is not a valid path to a directory
	ErrInvalidDirectory = errors.New("the specified path is not a directory")

	errStopped = errors.New("the tap has been closed")
)
