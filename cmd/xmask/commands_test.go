package main

import (
	"errors"
	"reflect"
	"testing"

	"github.com/xitonix/xmask/assert"
	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/imageio"
	"github.com/xitonix/xmask/pixel"
	"github.com/xitonix/xmask/transform"
)

func str(s string) *string { return &s }
func flag(b bool) *bool    { return &b }
func num(n int) *int       { return &n }

func newTransformArgs(areas ...string) *transformArgs {
	return &transformArgs{
		areas:     &areas,
		blockSize: num(16),
		noPermute: flag(false),
		noRotate:  flag(false),
		noNegate:  flag(false),
		shift:     str(""),
		clip:      str("bottom"),
		fill:      str("#000000"),
	}
}

func TestTransformOptions(t *testing.T) {
	testCases := []struct {
		title         string
		args          func() *transformArgs
		expectedAreas []geometry.Rect
		check         func(t *testing.T, a *transformArgs)
		expectedError error
	}{
		{
			title:         "defaults",
			args:          func() *transformArgs { return newTransformArgs("0,0,32,32") },
			expectedAreas: []geometry.Rect{geometry.R(0, 0, 32, 32)},
		},
		{
			title: "custom",
			args: func() *transformArgs {
				a := newTransformArgs("0,0,8,8", "8,8,8,8")
				a.blockSize = num(8)
				a.noPermute = flag(true)
				a.noNegate = flag(true)
				a.shift = str("0.25:#0000ff")
				a.clip = str("left")
				a.fill = str("#ffffff")
				return a
			},
			expectedAreas: []geometry.Rect{geometry.R(0, 0, 8, 8), geometry.R(8, 8, 8, 8)},
		},
		{
			title:         "no_areas",
			args:          func() *transformArgs { return newTransformArgs() },
			expectedError: errInvalidArgument,
		},
		{
			title: "invalid_block_size",
			args: func() *transformArgs {
				a := newTransformArgs("0,0,8,8")
				a.blockSize = num(0)
				return a
			},
			expectedError: transform.ErrGridMismatch,
		},
		{
			title: "invalid_fill",
			args: func() *transformArgs {
				a := newTransformArgs("0,0,8,8")
				a.fill = str("white")
				return a
			},
			expectedError: errInvalidArgument,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			areas, opts, err := tc.args().options("key")
			if tc.expectedError != nil {
				if !errors.Is(err, tc.expectedError) {
					t.Errorf("expected '%v', actual '%v'", tc.expectedError, err)
				}
				return
			}
			if !assert.Errors(t, false, err, nil) {
				return
			}
			if !reflect.DeepEqual(areas, tc.expectedAreas) {
				t.Errorf("expected %v, actual %v", tc.expectedAreas, areas)
			}
			if opts.Key != "key" {
				t.Errorf("expected the key to be set, actual %q", opts.Key)
			}
		})
	}

	_, opts, err := testCases[1].args().options("")
	if !assert.Errors(t, false, err, nil) {
		return
	}
	if opts.BlockSize != 8 || opts.Permute || !opts.Rotate || opts.Negate {
		t.Errorf("unexpected transform options %+v", opts.Options)
	}
	if opts.Shift == nil || opts.Shift.Contrast != 0.25 || opts.Shift.Target != (pixel.Pixel{B: 255}) {
		t.Errorf("unexpected colour shift %+v", opts.Shift)
	}
	if opts.Clip != geometry.Left || opts.Fill != (pixel.Pixel{R: 255, G: 255, B: 255}) {
		t.Errorf("unexpected clip %v or fill %v", opts.Clip, opts.Fill)
	}
}

func TestOutputFormat(t *testing.T) {
	testCases := []struct {
		title    string
		format   string
		path     string
		expected imageio.Format
	}{
		{title: "auto_from_extension", format: "auto", path: "out.qoi", expected: imageio.QOI},
		{title: "auto_without_extension", format: "auto", path: "out", expected: imageio.Auto},
		{title: "explicit_format_wins", format: "bmp", path: "out.png", expected: imageio.BMP},
		{title: "jpg_alias", format: "jpg", path: "out.png", expected: imageio.JPEG},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			o := &outputArgs{format: str(tc.format), force: flag(false)}
			actual, err := o.resolve(tc.path)
			if !assert.Errors(t, false, err, nil) {
				return
			}
			if actual != tc.expected {
				t.Errorf("expected %v, actual %v", tc.expected, actual)
			}
		})
	}
}

func TestResolveKey(t *testing.T) {
	testCases := []struct {
		title         string
		args          *keyArgs
		expected      string
		randomLength  int
		expectedError error
	}{
		{
			title: "default_key",
			args:  &keyArgs{key: str(""), askKey: flag(false)},
		},
		{
			title:    "custom_key",
			args:     &keyArgs{key: str("secret"), askKey: flag(false), randomKey: flag(false)},
			expected: "secret",
		},
		{
			title:        "random_key",
			args:         &keyArgs{key: str(""), askKey: flag(false), randomKey: flag(true)},
			randomLength: defaultKeyLength,
		},
		{
			title:         "mutually_exclusive",
			args:          &keyArgs{key: str("secret"), askKey: flag(false), randomKey: flag(true)},
			expectedError: errInvalidArgument,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			actual, err := tc.args.resolve()
			if tc.expectedError != nil {
				if !errors.Is(err, tc.expectedError) {
					t.Errorf("expected '%v', actual '%v'", tc.expectedError, err)
				}
				return
			}
			if !assert.Errors(t, false, err, nil) {
				return
			}
			if tc.randomLength > 0 {
				if len(actual) != tc.randomLength {
					t.Errorf("expected a %d character key, actual %q", tc.randomLength, actual)
				}
				return
			}
			if actual != tc.expected {
				t.Errorf("expected %q, actual %q", tc.expected, actual)
			}
		})
	}
}
