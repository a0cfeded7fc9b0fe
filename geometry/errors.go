package geometry

import "errors"

var (
	// ErrOutOfBounds is returned when an area does not overlap the image
	ErrOutOfBounds = errors.New("geometry: area is outside the image")
	// ErrBlockTooLarge is returned when the block size does not fit the image
	ErrBlockTooLarge = errors.New("geometry: invalid block size")
	// ErrInvalidEdge is returned when parsing an unknown edge name
	ErrInvalidEdge = errors.New("geometry: invalid edge")
)
