package transform

import (
	"math"

	"github.com/xitonix/xmask/pixel"
)

// Angle a clockwise rotation in quarter turns
type Angle int

const (
	// Deg0 no rotation
	Deg0 Angle = iota
	// Deg90 a quarter turn clockwise
	Deg90
	// Deg180 a half turn
	Deg180
	// Deg270 three quarter turns clockwise
	Deg270
)

// Inverse returns the complementary angle, 360 - a
func (a Angle) Inverse() Angle {
	return (4 - a%4) % 4
}

// FlipMode the mirror applied to a block
type FlipMode int

const (
	// NoFlip leaves the block untouched
	NoFlip FlipMode = iota
	// Horizontal mirrors the block left to right
	Horizontal
	// Vertical mirrors the block top to bottom
	Vertical
)

// Rotate rotates every group clockwise by seq[i] mod 4 quarter turns
func Rotate(groups []pixel.Group, seq []int) []pixel.Group {
	return rotateAll(groups, seq, false)
}

// Unrotate undoes Rotate by applying the complementary angle of every group
func Unrotate(groups []pixel.Group, seq []int) []pixel.Group {
	return rotateAll(groups, seq, true)
}

func rotateAll(groups []pixel.Group, seq []int, inverse bool) []pixel.Group {
	out := make([]pixel.Group, len(groups))
	for i, g := range groups {
		a := Angle(at(seq, i) % 4)
		if inverse {
			a = a.Inverse()
		}
		out[i] = RotateGroup(g, a)
	}
	return out
}

// Flip mirrors every group according to seq[i] mod 3. Flipping is its own inverse.
func Flip(groups []pixel.Group, seq []int) []pixel.Group {
	out := make([]pixel.Group, len(groups))
	for i, g := range groups {
		out[i] = FlipGroup(g, FlipMode(at(seq, i)%3))
	}
	return out
}

// RotateGroup returns a copy of a square group rotated clockwise
func RotateGroup(g pixel.Group, a Angle) pixel.Group {
	a %= 4
	if a == Deg0 {
		return g
	}
	size := side(g)
	out := make(pixel.Group, len(g))
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			var dst int
			switch a {
			case Deg90:
				dst = j*size + (size - i - 1)
			case Deg180:
				dst = (size-i-1)*size + (size - j - 1)
			case Deg270:
				dst = (size-j-1)*size + i
			}
			out[dst] = g[i*size+j]
		}
	}
	return out
}

// FlipGroup returns a copy of a square group mirrored according to the mode
func FlipGroup(g pixel.Group, mode FlipMode) pixel.Group {
	if mode != Horizontal && mode != Vertical {
		return g
	}
	size := side(g)
	out := make(pixel.Group, len(g))
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if mode == Horizontal {
				out[i*size+(size-j-1)] = g[i*size+j]
			} else {
				out[(size-i-1)*size+j] = g[i*size+j]
			}
		}
	}
	return out
}

func side(g pixel.Group) int {
	return int(math.Sqrt(float64(len(g))))
}

func at(seq []int, i int) int {
	if len(seq) == 0 {
		return 0
	}
	return seq[i%len(seq)]
}
