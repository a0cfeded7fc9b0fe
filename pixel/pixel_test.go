package pixel

import (
	"image"
	"image/color"
	"testing"
)

func TestSampleClampsToTheBuffer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img.SetRGBA(2, 1, color.RGBA{R: 4, G: 5, B: 6, A: 255})

	testCases := []struct {
		title    string
		x, y     int
		expected Pixel
	}{
		{title: "top_left", x: 0, y: 0, expected: Pixel{1, 2, 3}},
		{title: "bottom_right", x: 2, y: 1, expected: Pixel{4, 5, 6}},
		{title: "negative_coordinates", x: -5, y: -1, expected: Pixel{1, 2, 3}},
		{title: "coordinates_past_the_end", x: 10, y: 10, expected: Pixel{4, 5, 6}},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			actual := Sample(img.Pix, img.Stride, tc.x, tc.y)
			if actual != tc.expected {
				t.Errorf("expected %v, actual %v", tc.expected, actual)
			}
		})
	}
}

func TestAtRespectsTheImageOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(2, 3, color.RGBA{R: 9, G: 8, B: 7, A: 255})
	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)

	if p := At(sub, 2, 3); p != (Pixel{9, 8, 7}) {
		t.Errorf("expected (9,8,7), actual %v", p)
	}
}

func TestReadWrite(t *testing.T) {
	pixels := []Pixel{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}, {4, 4, 4}, {5, 5, 5}, {6, 6, 6}}
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	r := image.Rect(1, 2, 4, 4)

	Write(img, r, pixels)
	actual := Read(img, r)

	if len(actual) != len(pixels) {
		t.Fatalf("expected %d pixels, actual %d", len(pixels), len(actual))
	}
	for i := range pixels {
		if actual[i] != pixels[i] {
			t.Errorf("pixel %d: expected %v, actual %v", i, pixels[i], actual[i])
		}
	}

	if a := img.RGBAAt(1, 2).A; a != 0xff {
		t.Errorf("written pixels must be opaque, actual alpha %d", a)
	}
}

func TestToRGBADropsTheOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 12, 13))
	src.SetNRGBA(10, 10, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	dst := ToRGBA(src)
	if dst.Bounds() != image.Rect(0, 0, 2, 3) {
		t.Fatalf("unexpected bounds %v", dst.Bounds())
	}
	if p := At(dst, 0, 0); p != (Pixel{200, 100, 50}) {
		t.Errorf("expected (200,100,50), actual %v", p)
	}
}

func TestFromColor(t *testing.T) {
	p := FromColor(color.Gray{Y: 128})
	if p != (Pixel{128, 128, 128}) {
		t.Errorf("expected mid gray, actual %v", p)
	}
}
