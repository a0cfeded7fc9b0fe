package palette

import (
	"testing"

	"github.com/xitonix/xmask/b64"
	"github.com/xitonix/xmask/pixel"
)

func TestSymbolRoundTrip(t *testing.T) {
	seen := make(map[pixel.Pixel]int)
	for s := 0; s < b64.Symbols; s++ {
		c := SymbolToColor(s)
		if other, ok := seen[c]; ok {
			t.Fatalf("symbols %d and %d share the colour %v", other, s, c)
		}
		seen[c] = s

		if actual := ColorToSymbol(c); actual != s {
			t.Errorf("expected symbol %d, actual %d", s, actual)
		}
	}
}

func TestColorToSymbolPicksTheNearestLevel(t *testing.T) {
	testCases := []struct {
		title    string
		color    pixel.Pixel
		expected int
	}{
		{title: "black", color: pixel.Pixel{}, expected: 0},
		{title: "white", color: pixel.Pixel{R: 255, G: 255, B: 255}, expected: 63},
		{title: "just_below_the_first_midpoint", color: pixel.Pixel{B: 42}, expected: 0},
		{title: "just_above_the_first_midpoint", color: pixel.Pixel{B: 43}, expected: 1},
		{title: "blurred_red", color: pixel.Pixel{R: 240, G: 12, B: 30}, expected: 48},
		{title: "mixed_channels", color: pixel.Pixel{R: 90, G: 160, B: 215}, expected: 16 + 8 + 3},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			if actual := ColorToSymbol(tc.color); actual != tc.expected {
				t.Errorf("expected %d, actual %d", tc.expected, actual)
			}
		})
	}
}

func TestSentinelIsNotAPaletteColour(t *testing.T) {
	for s := 0; s < b64.Symbols; s++ {
		if SymbolToColor(s) == Sentinel {
			t.Fatalf("the sentinel collides with symbol %d", s)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	testCases := []struct {
		title    string
		text     string
		expected string
	}{
		{title: "no_padding", text: "QUJD", expected: "QUJD"},
		{title: "padding_becomes_zero_symbol", text: "QQ==", expected: "QQAA"},
		{title: "whole_alphabet", text: b64.Alphabet, expected: b64.Alphabet},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			if actual := ColorsToText(TextToColors(tc.text)); actual != tc.expected {
				t.Errorf("expected '%s', actual '%s'", tc.expected, actual)
			}
		})
	}
}
