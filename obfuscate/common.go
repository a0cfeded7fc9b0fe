package obfuscate

import (
	"image"
	"image/draw"

	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/pixel"
	"github.com/xitonix/xmask/transform"
)

// None represents an empty struct{}
type None struct{}

const (
	defaultBlockSize = 16
	// the colour byte code height depends on the final size, which depends on the height
	maxLayoutRounds = 16
	// the largest factor by which either side of an obfuscated image may be scaled before revealing it
	maxRescale = 16
)

var black = pixel.Pixel{}

// blockAt returns the pixel rectangle of the k-th block of a row-major block region
func blockAt(region geometry.Rect, blockSize, k int) image.Rectangle {
	cols := region.Width / blockSize
	x := region.X + (k%cols)*blockSize
	y := region.Y + (k/cols)*blockSize
	return image.Rect(x, y, x+blockSize, y+blockSize)
}

func cut(img *image.RGBA, area geometry.Rect, blockSize int) ([]pixel.Group, error) {
	return transform.Group(pixel.Read(img, area.Image()), area.Width, area.Height, blockSize)
}

func paste(dst *image.RGBA, r image.Rectangle, src image.Image) {
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
}
