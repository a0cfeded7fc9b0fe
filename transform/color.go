package transform

import (
	"fmt"
	"math"

	"github.com/xitonix/xmask/pixel"
)

// ColorShift pulls every channel towards the middle grey by Contrast and then
// tints the result towards Target by the same amount
type ColorShift struct {
	// Contrast within (0, 1). Lower values flatten the blocks more.
	Contrast float64
	Target   pixel.Pixel
}

// Validate returns an error if the contrast is not within (0, 1)
func (c ColorShift) Validate() error {
	if !(c.Contrast > 0 && c.Contrast < 1) {
		return fmt.Errorf("%w: %v", ErrInvalidContrast, c.Contrast)
	}
	return nil
}

// Tolerance the maximum per-channel difference a shift followed by an unshift may leave behind
func (c ColorShift) Tolerance() int {
	return int(math.Ceil(1 / c.Contrast))
}

// NegationPattern returns the 3-bit channel mask of a sequence value.
// Bit 0 selects red, bit 1 green and bit 2 blue. It is never zero.
func NegationPattern(v int) uint8 {
	return uint8(v%7) + 1
}

// Negate inverts the channels of every group selected by NegationPattern(seq[i]).
// Applying it twice with the same sequence restores the groups.
func Negate(groups []pixel.Group, seq []int) []pixel.Group {
	out := make([]pixel.Group, len(groups))
	for i, g := range groups {
		out[i] = NegateGroup(g, NegationPattern(at(seq, i)))
	}
	return out
}

// NegateGroup returns a copy of the group with the channels of the pattern inverted
func NegateGroup(g pixel.Group, pattern uint8) pixel.Group {
	out := make(pixel.Group, len(g))
	for i, p := range g {
		if pattern&1 != 0 {
			p.R = 255 - p.R
		}
		if pattern&2 != 0 {
			p.G = 255 - p.G
		}
		if pattern&4 != 0 {
			p.B = 255 - p.B
		}
		out[i] = p
	}
	return out
}

// ShiftColor lowers the contrast of every pixel and then shifts it towards the target colour
func ShiftColor(groups []pixel.Group, shift ColorShift) []pixel.Group {
	c := shift.Contrast
	base := 128 * (1 - c)
	return mapPixels(groups, func(v, target uint8) uint8 {
		lowered := 128 + c*(float64(v)-128)
		return channel(lowered - base + 2*base*float64(target)/255)
	}, shift.Target)
}

// UnshiftColor reverts ShiftColor: the colour shift is removed first, then the contrast is restored.
// The result matches the original within ColorShift.Tolerance.
func UnshiftColor(groups []pixel.Group, shift ColorShift) []pixel.Group {
	c := shift.Contrast
	base := 128 * (1 - c)
	return mapPixels(groups, func(v, target uint8) uint8 {
		lowered := float64(v) + base - 2*base*float64(target)/255
		return channel(128 + (lowered-128)/c)
	}, shift.Target)
}

func mapPixels(groups []pixel.Group, fn func(v, target uint8) uint8, target pixel.Pixel) []pixel.Group {
	out := make([]pixel.Group, len(groups))
	for i, g := range groups {
		ng := make(pixel.Group, len(g))
		for j, p := range g {
			ng[j] = pixel.Pixel{
				R: fn(p.R, target.R),
				G: fn(p.G, target.G),
				B: fn(p.B, target.B),
			}
		}
		out[i] = ng
	}
	return out
}

func channel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
