package transform

import "errors"

var (
	// ErrGridMismatch is returned when a region cannot be cut into whole blocks
	ErrGridMismatch = errors.New("transform: dimensions are not multiples of the grid size")
	// ErrBlockCount is returned when the number or the size of the blocks does not match the region
	ErrBlockCount = errors.New("transform: unexpected block count")
	// ErrInvalidContrast is returned when the contrast of a colour shift is not within (0, 1)
	ErrInvalidContrast = errors.New("transform: contrast must be between 0 and 1 exclusive")
)
