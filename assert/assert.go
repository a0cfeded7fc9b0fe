// Package assert includes some helper methods used for testing
package assert

import (
	"image"
	"testing"
)

// Errors checks the validity of the expected error and returns false if the assertion failed
// or if an error was expected, so that the caller can stop the test case.
func Errors(t *testing.T, expectError bool, err error, fields Fields) bool {
	t.Helper()

	if expectError && err == nil {
		t.Errorf("Expected an error, but received 'nil' (%s)", fields.String())
	}

	if !expectError && err != nil {
		t.Errorf("No error was expected, but received '%v' (%s)", err, fields.String())
		return false
	}

	return !expectError
}

// SameImage fails the test if the two images differ in bounds or in any RGB value
// by more than tolerance. Alpha is ignored.
func SameImage(t *testing.T, expected, actual image.Image, tolerance int, fields Fields) bool {
	t.Helper()

	if expected.Bounds().Size() != actual.Bounds().Size() {
		t.Errorf("Expected image size %v, actual %v (%s)", expected.Bounds().Size(), actual.Bounds().Size(), fields.String())
		return false
	}

	eb, ab := expected.Bounds(), actual.Bounds()
	for y := 0; y < eb.Dy(); y++ {
		for x := 0; x < eb.Dx(); x++ {
			er, eg, ebl, _ := expected.At(eb.Min.X+x, eb.Min.Y+y).RGBA()
			ar, ag, abl, _ := actual.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			if diff(er, ar) > tolerance || diff(eg, ag) > tolerance || diff(ebl, abl) > tolerance {
				t.Errorf("Pixel (%d,%d) mismatch. expected (%d,%d,%d), actual (%d,%d,%d) (%s)",
					x, y, er>>8, eg>>8, ebl>>8, ar>>8, ag>>8, abl>>8, fields.String())
				return false
			}
		}
	}
	return true
}

func diff(a, b uint32) int {
	d := int(a>>8) - int(b>>8)
	if d < 0 {
		return -d
	}
	return d
}
