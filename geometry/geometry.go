// Package geometry aligns user rectangles to the block grid and describes where the
// scrambled blocks are placed in the output image.
package geometry

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Rect a rectangle in image pixel coordinates
type Rect struct {
	X, Y, Width, Height int
}

// Size the dimensions of an image
type Size struct {
	Width, Height int
}

// Edge the side of the output image which receives the scrambled blocks
type Edge uint8

const (
	// Bottom below the main area
	Bottom Edge = iota
	// Top above the main area
	Top
	// Left to the left of the main area
	Left
	// Right to the right of the main area
	Right
)

// String returns the string representation of the edge
func (e Edge) String() string {
	switch e {
	case Bottom:
		return "bottom"
	case Top:
		return "top"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// ParseEdge parses the string representation of an edge
func ParseEdge(s string) (Edge, error) {
	for e := Bottom; e <= Right; e++ {
		if strings.EqualFold(strings.TrimSpace(s), e.String()) {
			return e, nil
		}
	}
	return Bottom, fmt.Errorf("%w: %q", ErrInvalidEdge, s)
}

// Horizontal returns true if the edge spans the width of the image
func (e Edge) Horizontal() bool {
	return e == Top || e == Bottom
}

// R creates a new rectangle
func R(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// FromImage converts an image.Rectangle
func FromImage(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Image converts the rectangle to an image.Rectangle
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty returns true if the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains returns true if o lies entirely within the rectangle
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.X+o.Width <= r.X+r.Width && o.Y+o.Height <= r.Y+r.Height
}

// Offset returns the rectangle moved by (dx, dy)
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Blocks returns the number of blocks of the given size within an aligned rectangle
func (r Rect) Blocks(blockSize int) int {
	return (r.Width / blockSize) * (r.Height / blockSize)
}

// Scale returns the rectangle scaled by (sx, sy) with rounded coordinates
func Scale(r Rect, sx, sy float64) Rect {
	x0 := int(math.Round(float64(r.X) * sx))
	y0 := int(math.Round(float64(r.Y) * sy))
	x1 := int(math.Round(float64(r.X+r.Width) * sx))
	y1 := int(math.Round(float64(r.Y+r.Height) * sy))
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// AlignToGrid grows the area to whole blocks and keeps it within the image.
//
// The area is first clipped to the image. Width and height are then padded up to the next multiple
// of blockSize, moving the origin back by half of the padding. If the padded size does not fit,
// it is reduced to the largest multiple which does. Finally the rectangle is shifted left/up by any overflow.
// Aligning an already aligned rectangle is a no-op.
func AlignToGrid(area Rect, imageWidth, imageHeight, blockSize int) (Rect, error) {
	if blockSize <= 0 || blockSize > imageWidth || blockSize > imageHeight {
		return Rect{}, fmt.Errorf("%w: %d for a %dx%d image", ErrBlockTooLarge, blockSize, imageWidth, imageHeight)
	}

	clipped := area.Image().Intersect(image.Rect(0, 0, imageWidth, imageHeight))
	if clipped.Empty() {
		return Rect{}, fmt.Errorf("%w: %+v within %dx%d", ErrOutOfBounds, area, imageWidth, imageHeight)
	}

	x, width := alignAxis(clipped.Min.X, clipped.Dx(), imageWidth, blockSize)
	y, height := alignAxis(clipped.Min.Y, clipped.Dy(), imageHeight, blockSize)
	return Rect{X: x, Y: y, Width: width, Height: height}, nil
}

func alignAxis(pos, length, limit, blockSize int) (int, int) {
	if rem := length % blockSize; rem != 0 {
		pad := blockSize - rem
		length += pad
		pos -= pad / 2
	}
	if length > limit {
		length = limit - limit%blockSize
	}
	if pos < 0 {
		pos = 0
	}
	if overflow := pos + length - limit; overflow > 0 {
		pos -= overflow
	}
	return pos, length
}
