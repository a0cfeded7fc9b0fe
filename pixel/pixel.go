// Package pixel defines the RGB pixel model shared by the transform and the colour byte code,
// together with the conversions between pixel slices and Go images.
package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// Pixel an opaque RGB colour
type Pixel struct {
	R, G, B uint8
}

// Group one square block of pixels stored row-major. Its length is always a perfect square.
type Group []Pixel

// RGBA returns the opaque color.RGBA of the pixel
func (p Pixel) RGBA() color.RGBA {
	return color.RGBA{R: p.R, G: p.G, B: p.B, A: 0xff}
}

// FromColor converts any colour to a pixel, dropping the alpha channel
func FromColor(c color.Color) Pixel {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Pixel{R: n.R, G: n.G, B: n.B}
}

// Sample reads the pixel at (x, y) of an RGBA-ordered buffer with the given stride.
// The coordinates are clamped to the buffer, so callers can sample block centres without bound checks.
func Sample(buf []uint8, stride, x, y int) Pixel {
	x = clamp(x, 0, stride/4-1)
	y = clamp(y, 0, len(buf)/stride-1)
	i := y*stride + x*4
	return Pixel{R: buf[i], G: buf[i+1], B: buf[i+2]}
}

// At samples an RGBA image in its own coordinate space, clamping to the bounds.
func At(img *image.RGBA, x, y int) Pixel {
	b := img.Bounds()
	x = clamp(x, b.Min.X, b.Max.X-1)
	y = clamp(y, b.Min.Y, b.Max.Y-1)
	i := img.PixOffset(x, y)
	return Pixel{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ToRGBA copies any image into an *image.RGBA with bounds starting at (0,0).
// The input is never modified.
func ToRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Read returns the pixels of r within img, row-major
func Read(img *image.RGBA, r image.Rectangle) []Pixel {
	r = r.Intersect(img.Bounds())
	out := make([]Pixel, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			out = append(out, Pixel{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]})
			i += 4
		}
	}
	return out
}

// Write paints pixels row-major into r within img. The alpha channel is set to opaque.
func Write(img *image.RGBA, r image.Rectangle, pixels []Pixel) {
	w := r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
				continue
			}
			p := pixels[(y-r.Min.Y)*w+(x-r.Min.X)]
			i := img.PixOffset(x, y)
			img.Pix[i] = p.R
			img.Pix[i+1] = p.G
			img.Pix[i+2] = p.B
			img.Pix[i+3] = 0xff
		}
	}
}

// Fill paints r within img with a single colour
func Fill(img *image.RGBA, r image.Rectangle, p Pixel) {
	draw.Draw(img, r, image.NewUniform(p.RGBA()), image.Point{}, draw.Src)
}

// Image builds a new opaque RGBA image from row-major pixels
func Image(pixels []Pixel, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	Write(img, img.Bounds(), pixels)
	return img
}
