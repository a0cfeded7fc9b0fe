// Package transform implements the keyed, reversible block transform.
//
// A rectangular pixel region is cut into square blocks (groups) which are then permuted,
// rotated, flipped, colour negated and contrast/hue shifted. Every decision is taken from the
// hash sequence of the key, so applying the inverse chain with the same key restores the region exactly.
//
// None of the functions modify their input: each stage returns a new slice. Groups which a stage
// leaves untouched may be shared between the input and the output.
package transform

import (
	"fmt"

	"github.com/xitonix/xmask/pixel"
)

// Group cuts a width x height row-major pixel array into gridSize x gridSize blocks.
// The blocks are returned in row-major block order, each block itself row-major.
func Group(pixels []pixel.Pixel, width, height, gridSize int) ([]pixel.Group, error) {
	if err := checkGrid(len(pixels), width, height, gridSize); err != nil {
		return nil, err
	}

	cols, rows := width/gridSize, height/gridSize
	groups := make([]pixel.Group, 0, cols*rows)
	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			g := make(pixel.Group, 0, gridSize*gridSize)
			for y := 0; y < gridSize; y++ {
				start := (by*gridSize+y)*width + bx*gridSize
				g = append(g, pixels[start:start+gridSize]...)
			}
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// Ungroup is the inverse of Group
func Ungroup(groups []pixel.Group, width, height, gridSize int) ([]pixel.Pixel, error) {
	if err := checkGrid(width*height, width, height, gridSize); err != nil {
		return nil, err
	}

	cols := width / gridSize
	if expected := cols * (height / gridSize); len(groups) != expected {
		return nil, fmt.Errorf("%w: %d blocks for a %dx%d grid of %d", ErrBlockCount, len(groups), width, height, gridSize)
	}

	pixels := make([]pixel.Pixel, width*height)
	for i, g := range groups {
		if len(g) != gridSize*gridSize {
			return nil, fmt.Errorf("%w: block %d has %d pixels", ErrBlockCount, i, len(g))
		}
		bx, by := i%cols, i/cols
		for y := 0; y < gridSize; y++ {
			start := (by*gridSize+y)*width + bx*gridSize
			copy(pixels[start:start+gridSize], g[y*gridSize:(y+1)*gridSize])
		}
	}
	return pixels, nil
}

func checkGrid(count, width, height, gridSize int) error {
	if gridSize <= 0 || width%gridSize != 0 || height%gridSize != 0 {
		return fmt.Errorf("%w: %dx%d by %d", ErrGridMismatch, width, height, gridSize)
	}
	if count != width*height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrGridMismatch, count, width, height)
	}
	return nil
}
