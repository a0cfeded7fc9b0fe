package obfuscate

import (
	"context"
	"errors"
	"image"
	"reflect"
	"testing"

	"github.com/NebulousLabs/fastrand"
	"github.com/nfnt/resize"

	"github.com/xitonix/xmask/assert"
	"github.com/xitonix/xmask/colorcode"
	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/pixel"
	"github.com/xitonix/xmask/transform"
)

func randomImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fastrand.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func uniformImage(width, height int, p pixel.Pixel) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	pixel.Fill(img, img.Bounds(), p)
	return img
}

func TestRoundTrip(t *testing.T) {
	shift := DefaultOptions()
	shift.Shift = &transform.ColorShift{Contrast: 0.5, Target: pixel.Pixel{R: 255}}

	keyed := DefaultOptions()
	keyed.Key = "correct horse"

	nothing := DefaultOptions()
	nothing.Permute, nothing.Rotate, nothing.Negate = false, false, false

	testCases := []struct {
		title     string
		opts      Options
		key       string
		areas     []geometry.Rect
		tolerance int
	}{
		{
			title: "default_options",
			opts:  DefaultOptions(),
			areas: []geometry.Rect{geometry.R(8, 8, 20, 20)},
		},
		{
			title: "custom_key",
			opts:  keyed,
			key:   keyed.Key,
			areas: []geometry.Rect{geometry.R(0, 0, 96, 80)},
		},
		{
			title: "overlapping_areas",
			opts:  DefaultOptions(),
			areas: []geometry.Rect{geometry.R(0, 0, 32, 32), geometry.R(16, 16, 32, 32)},
		},
		{
			title: "area_partially_outside_the_image",
			opts:  DefaultOptions(),
			areas: []geometry.Rect{geometry.R(-10, 70, 40, 40)},
		},
		{
			title: "no_transform_stages",
			opts:  nothing,
			areas: []geometry.Rect{geometry.R(40, 40, 16, 16)},
		},
		{
			title:     "colour_shift",
			opts:      shift,
			areas:     []geometry.Rect{geometry.R(20, 30, 40, 20), geometry.R(64, 0, 32, 48)},
			tolerance: shift.Shift.Tolerance(),
		},
	}

	for _, edge := range []geometry.Edge{geometry.Bottom, geometry.Top, geometry.Left, geometry.Right} {
		for _, tc := range testCases {
			t.Run(edge.String()+"/"+tc.title, func(t *testing.T) {
				fields := assert.Fields{"edge": edge, "title": tc.title}
				original := randomImage(96, 80)
				opts := tc.opts
				opts.Clip = edge

				obfuscated, err := Obfuscate(original, tc.areas, opts)
				if !assert.Errors(t, false, err, fields) {
					return
				}

				revealed, err := NewDecoder(DecodeOptions{Key: tc.key, Crop: true}).Decode(obfuscated)
				if !assert.Errors(t, false, err, fields) {
					return
				}
				assert.SameImage(t, original, revealed, tc.tolerance, fields)
			})
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	testCases := []struct {
		edge         geometry.Edge
		expectedMain geometry.Rect
		expectedClip geometry.Rect
	}{
		{edge: geometry.Bottom, expectedMain: geometry.R(0, 0, 96, 80), expectedClip: geometry.R(0, 80, 96, 16)},
		{edge: geometry.Top, expectedMain: geometry.R(0, 16, 96, 80), expectedClip: geometry.R(0, 0, 96, 16)},
		{edge: geometry.Left, expectedMain: geometry.R(16, 0, 96, 80), expectedClip: geometry.R(0, 0, 16, 80)},
		{edge: geometry.Right, expectedMain: geometry.R(0, 0, 96, 80), expectedClip: geometry.R(96, 0, 16, 80)},
	}

	fill := pixel.Pixel{R: 10, G: 200, B: 30}
	for _, tc := range testCases {
		t.Run(tc.edge.String(), func(t *testing.T) {
			original := randomImage(96, 80)
			opts := DefaultOptions()
			opts.Clip = tc.edge
			opts.Fill = fill
			opts.Key = "key"

			// 20x20 grows to 32x32: four blocks
			out, err := Obfuscate(original, []geometry.Rect{geometry.R(8, 8, 20, 20)}, opts)
			if !assert.Errors(t, false, err, nil) {
				return
			}

			recipe, err := colorcode.Decode(out)
			if !assert.Errors(t, false, err, nil) {
				return
			}
			if recipe.Size != (geometry.Size{Width: out.Rect.Dx(), Height: out.Rect.Dy()}) {
				t.Errorf("The recipe size %+v does not match the image %v", recipe.Size, out.Rect.Size())
			}
			if recipe.MainArea != tc.expectedMain {
				t.Errorf("Expected main area %+v, actual %+v", tc.expectedMain, recipe.MainArea)
			}
			if recipe.ClipArea != tc.expectedClip {
				t.Errorf("Expected clip area %+v, actual %+v", tc.expectedClip, recipe.ClipArea)
			}
			if !reflect.DeepEqual(recipe.Areas, []geometry.Rect{geometry.R(2, 2, 32, 32)}) {
				t.Errorf("Unexpected areas %+v", recipe.Areas)
			}
			if !recipe.HasKey || recipe.Fill != fill || recipe.Clip != tc.edge {
				t.Errorf("Unexpected recipe %+v", recipe)
			}

			main := recipe.MainArea
			if p := pixel.At(out, main.X+2, main.Y+2); p != fill {
				t.Errorf("Expected the area to be filled with %+v, actual %+v", fill, p)
			}
			if p, e := pixel.At(out, main.X+50, main.Y+50), pixel.At(original, 50, 50); p != e {
				t.Errorf("Expected the pixels outside the areas to be intact. Expected %+v, actual %+v", e, p)
			}
		})
	}
}

func TestRevealWithTheWrongKey(t *testing.T) {
	grey := pixel.Pixel{R: 128, G: 128, B: 128}
	original := uniformImage(64, 48, pixel.Pixel{R: 30, G: 60, B: 90})
	pixel.Fill(original, image.Rect(8, 8, 16, 16), grey)

	opts := DefaultOptions()
	opts.BlockSize = 8
	opts.Key = "TEST"
	obfuscated, err := Obfuscate(original, []geometry.Rect{geometry.R(8, 8, 8, 8)}, opts)
	if !assert.Errors(t, false, err, nil) {
		return
	}

	revealed, err := NewDecoder(DecodeOptions{Key: "TEST", Crop: true}).Decode(obfuscated)
	if !assert.Errors(t, false, err, nil) {
		return
	}
	assert.SameImage(t, original, revealed, 0, assert.Fields{"key": "TEST"})

	garbled, err := NewDecoder(DecodeOptions{Key: "WRONG", Crop: true}).Decode(obfuscated)
	if !assert.Errors(t, false, err, nil) {
		return
	}
	if garbled.Rect.Size() != original.Rect.Size() {
		t.Fatalf("Expected size %v, actual %v", original.Rect.Size(), garbled.Rect.Size())
	}
	if p := pixel.At(garbled, 12, 12); p == grey {
		t.Error("The area was not supposed to be revealed with the wrong key")
	}
	if p := pixel.At(garbled, 40, 40); p != pixel.At(original, 40, 40) {
		t.Error("The pixels outside the area were not supposed to change")
	}
}

func TestObfuscateNarrowImages(t *testing.T) {
	grey := pixel.Pixel{R: 128, G: 128, B: 128}
	testCases := []struct {
		title  string
		width  int
		height int
		clip   geometry.Edge
	}{
		{title: "8x8", width: 8, height: 8, clip: geometry.Bottom},
		{title: "16x8", width: 16, height: 8, clip: geometry.Bottom},
		{title: "47x8", width: 47, height: 8, clip: geometry.Bottom},
		{title: "8x8_clipped_right", width: 8, height: 8, clip: geometry.Right},
		{title: "8x40_clipped_top", width: 8, height: 40, clip: geometry.Top},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			original := uniformImage(tc.width, tc.height, grey)
			opts := DefaultOptions()
			opts.BlockSize = 8
			opts.Key = "TEST"
			opts.Clip = tc.clip
			obfuscated, err := Obfuscate(original, []geometry.Rect{geometry.R(0, 0, 8, 8)}, opts)
			if !assert.Errors(t, false, err, nil) {
				return
			}
			size := geometry.Size{Width: obfuscated.Rect.Dx(), Height: obfuscated.Rect.Dy()}
			if min := colorcode.MinStripWidth(size); size.Width < min {
				t.Errorf("Expected the output to be at least %dpx wide, actual %d", min, obfuscated.Rect.Dx())
			}

			revealed, err := NewDecoder(DecodeOptions{Key: "TEST", Crop: true}).Decode(obfuscated)
			if !assert.Errors(t, false, err, nil) {
				return
			}
			assert.SameImage(t, original, revealed, 0, assert.Fields{"key": "TEST"})

			garbled, err := NewDecoder(DecodeOptions{Key: "WRONG", Crop: true}).Decode(obfuscated)
			if !assert.Errors(t, false, err, nil) {
				return
			}
			if garbled.Rect.Size() != original.Rect.Size() {
				t.Fatalf("Expected size %v, actual %v", original.Rect.Size(), garbled.Rect.Size())
			}
			if p := pixel.At(garbled, 4, 4); p == grey {
				t.Error("The area was not supposed to be revealed with the wrong key")
			}
		})
	}
}

func TestRevealErrors(t *testing.T) {
	opts := DefaultOptions()
	opts.Key = "secret"
	keyed, err := Obfuscate(randomImage(96, 80), []geometry.Rect{geometry.R(0, 0, 16, 16)}, opts)
	if !assert.Errors(t, false, err, nil) {
		return
	}

	// a readable strip claiming the image used to be 20 times wider and taller
	implausible := image.NewRGBA(image.Rect(0, 0, 100, 150))
	strip, err := colorcode.Encode(&colorcode.Recipe{
		Transform: transform.Options{BlockSize: 16, Permute: true},
		Areas:     []geometry.Rect{geometry.R(0, 0, 16, 16)},
		MainArea:  geometry.R(0, 0, 100, 100),
		ClipArea:  geometry.R(0, 100, 96, 16),
		Size:      geometry.Size{Width: 2000, Height: 2000},
	}, 100)
	if !assert.Errors(t, false, err, nil) {
		return
	}
	paste(implausible, image.Rect(0, 150-strip.Rect.Dy(), 100, 150), strip)

	testCases := []struct {
		title    string
		img      image.Image
		key      string
		expected error
	}{
		{title: "missing_key", img: keyed, expected: ErrKeyRequired},
		{title: "implausible_size", img: implausible, expected: colorcode.ErrInvalidRecipe},
		{title: "no_colour_byte_code", img: uniformImage(96, 80, pixel.Pixel{R: 30, G: 60, B: 90}), key: "secret", expected: colorcode.ErrUnreadable},
		{title: "blank_image", img: image.NewRGBA(image.Rect(0, 0, 96, 80)), expected: colorcode.ErrUnreadable},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			out, err := Reveal(tc.img, tc.key)
			if !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, actual %v", tc.expected, err)
			}
			if out != nil {
				t.Error("No image was expected")
			}
		})
	}
}

func TestObfuscateErrors(t *testing.T) {
	invalid := DefaultOptions()
	invalid.BlockSize = 0

	shift := DefaultOptions()
	shift.Shift = &transform.ColorShift{Contrast: 1.5}

	edge := DefaultOptions()
	edge.Clip = geometry.Edge(9)

	testCases := []struct {
		title    string
		img      image.Image
		areas    []geometry.Rect
		opts     Options
		expected error
	}{
		{title: "no_areas", img: randomImage(96, 80), opts: DefaultOptions(), expected: ErrNoAreas},
		{
			title:    "block_larger_than_the_image",
			img:      randomImage(12, 80),
			areas:    []geometry.Rect{geometry.R(0, 0, 4, 4)},
			opts:     DefaultOptions(),
			expected: geometry.ErrBlockTooLarge,
		},
		{
			title:    "area_outside_the_image",
			img:      randomImage(96, 80),
			areas:    []geometry.Rect{geometry.R(200, 0, 4, 4)},
			opts:     DefaultOptions(),
			expected: geometry.ErrOutOfBounds,
		},
		{
			title:    "invalid_block_size",
			img:      randomImage(96, 80),
			areas:    []geometry.Rect{geometry.R(0, 0, 4, 4)},
			opts:     invalid,
			expected: transform.ErrGridMismatch,
		},
		{
			title:    "invalid_contrast",
			img:      randomImage(96, 80),
			areas:    []geometry.Rect{geometry.R(0, 0, 4, 4)},
			opts:     shift,
			expected: transform.ErrInvalidContrast,
		},
		{
			title:    "invalid_edge",
			img:      randomImage(96, 80),
			areas:    []geometry.Rect{geometry.R(0, 0, 4, 4)},
			opts:     edge,
			expected: geometry.ErrInvalidEdge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			out, err := Obfuscate(tc.img, tc.areas, tc.opts)
			if !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, actual %v", tc.expected, err)
			}
			if out != nil {
				t.Error("No image was expected")
			}
		})
	}
}

func TestObfuscateDoesNotModifyTheInput(t *testing.T) {
	original := randomImage(64, 64)
	snapshot := pixel.ToRGBA(original)
	if _, err := Obfuscate(original, []geometry.Rect{geometry.R(0, 0, 32, 32)}, DefaultOptions()); err != nil {
		t.Fatalf("No error was expected, but received '%v'", err)
	}
	assert.SameImage(t, snapshot, original, 0, nil)
}

func TestRevealScaledImage(t *testing.T) {
	colour := pixel.Pixel{R: 200, G: 100, B: 50}
	original := uniformImage(96, 80, colour)
	// the area fills exactly two rows of the clip region
	area := geometry.R(0, 0, 96, 32)
	obfuscated, err := Obfuscate(original, []geometry.Rect{area}, DefaultOptions())
	if !assert.Errors(t, false, err, nil) {
		return
	}

	w, h := obfuscated.Rect.Dx()*2, obfuscated.Rect.Dy()*2
	large := resize.Resize(uint(w), uint(h), obfuscated, resize.NearestNeighbor)

	for _, smooth := range []bool{false, true} {
		revealed, err := NewDecoder(DecodeOptions{Smooth: smooth}).Decode(large)
		if !assert.Errors(t, false, err, assert.Fields{"smooth": smooth}) {
			return
		}
		if revealed.Rect.Dx() != w || revealed.Rect.Dy() != h {
			t.Fatalf("Expected a %dx%d image, actual %v", w, h, revealed.Rect.Size())
		}

		// block centres are far enough from the resampled edges
		for y := 8; y < area.Height; y += 16 {
			for x := 8; x < area.Width; x += 16 {
				p := pixel.At(revealed, x*2, y*2)
				if diff(p.R, colour.R) > 8 || diff(p.G, colour.G) > 8 || diff(p.B, colour.B) > 8 {
					t.Errorf("Pixel (%d,%d): expected %+v, actual %+v (smooth: %v)", x*2, y*2, colour, p, smooth)
				}
			}
		}
	}
}

func TestEncodeContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEncoder(DefaultOptions()).EncodeContext(ctx, randomImage(64, 64), []geometry.Rect{geometry.R(0, 0, 16, 16)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected %v, actual %v", context.Canceled, err)
	}
}

func TestSeams(t *testing.T) {
	testCases := []struct {
		title    string
		length   int
		step     float64
		expected []int
	}{
		{title: "whole_blocks", length: 16, step: 4, expected: []int{3, 4, 7, 8, 11, 12}},
		{title: "fractional_step", length: 10, step: 4.5, expected: []int{4, 5, 8, 9}},
		{title: "single_block", length: 8, step: 8},
		{title: "tiny_step", length: 8, step: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			var actual []int
			for i, marked := range seams(tc.length, tc.step) {
				if marked {
					actual = append(actual, i)
				}
			}
			if !reflect.DeepEqual(actual, tc.expected) {
				t.Errorf("Expected %v, actual %v", tc.expected, actual)
			}
		})
	}
}

func diff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
