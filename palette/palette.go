// Package palette maps the 64 symbols of the colour byte code to colours and back.
//
// Every channel is quantised to four levels (0, 85, 170, 255), giving 4x4x4 distinct colours.
// A symbol s is laid out as r*16 + g*4 + b where r, g and b are the level indices.
package palette

import (
	"strings"

	"github.com/xitonix/xmask/b64"
	"github.com/xitonix/xmask/pixel"
)

const (
	// Levels the number of quantisation levels per channel
	Levels = 4
	step   = 255 / (Levels - 1)
)

// Sentinel fills the unused cells of the colour byte code. It is not a palette colour
// and is never interpreted by the reader.
var Sentinel = pixel.Pixel{R: 127, G: 127, B: 127}

// SymbolToColor returns the colour of a symbol in [0, 63]
func SymbolToColor(symbol int) pixel.Pixel {
	symbol &= b64.Symbols - 1
	return pixel.Pixel{
		R: uint8(symbol / (Levels * Levels) * step),
		G: uint8(symbol / Levels % Levels * step),
		B: uint8(symbol % Levels * step),
	}
}

// ColorToSymbol returns the symbol of the nearest palette colour, choosing the closest level per channel
func ColorToSymbol(p pixel.Pixel) int {
	return (level(p.R)*Levels+level(p.G))*Levels + level(p.B)
}

func level(v uint8) int {
	// ties are impossible: the midpoints between levels are at x.5
	return (int(v) + step/2) / step
}

// TextToColors converts alphabet text to colours. The padding character is rendered as symbol zero.
func TextToColors(text string) []pixel.Pixel {
	colors := make([]pixel.Pixel, len(text))
	for i := 0; i < len(text); i++ {
		s, ok := b64.Symbol(text[i])
		if !ok {
			s = 0
		}
		colors[i] = SymbolToColor(s)
	}
	return colors
}

// ColorsToText converts colours to alphabet text, quantising each colour to its nearest symbol
func ColorsToText(colors []pixel.Pixel) string {
	var sb strings.Builder
	sb.Grow(len(colors))
	for _, c := range colors {
		sb.WriteByte(b64.Char(ColorToSymbol(c)))
	}
	return sb.String()
}
