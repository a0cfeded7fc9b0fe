package obfuscate

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/gift"
	"github.com/nfnt/resize"

	"github.com/xitonix/xmask/colorcode"
	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/pixel"
	"github.com/xitonix/xmask/transform"
)

// Decoder is the type that reveals the areas of an image obfuscated by an Encoder
type Decoder struct {
	opts DecodeOptions
}

// NewDecoder creates a new Decoder object
func NewDecoder(opts DecodeOptions) *Decoder {
	return &Decoder{opts: opts}
}

// Decode reveals the obfuscated areas of the image.
//
// The image may have been scaled since it was obfuscated, as long as the colour byte code is still readable
// and neither side changed by more than 16 times.
// A wrong key is not detected: the areas are filled with scrambled blocks instead.
// ErrKeyRequired is returned if the image was obfuscated with a custom key and no key is given.
func (d *Decoder) Decode(img image.Image) (*image.RGBA, error) {
	return d.DecodeContext(context.Background(), img)
}

// DecodeContext reveals the obfuscated areas of the image and receives cancellation signal on the context parameter.
func (d *Decoder) DecodeContext(ctx context.Context, img image.Image) (*image.RGBA, error) {
	recipe, err := colorcode.Decode(img)
	if err != nil {
		return nil, err
	}

	key, custom := effectiveKey(d.opts.Key)
	if recipe.HasKey && !custom {
		return nil, ErrKeyRequired
	}

	out := pixel.ToRGBA(img)
	size := geometry.Size{Width: out.Rect.Dx(), Height: out.Rect.Dy()}
	if !plausibleScale(size, recipe.Size) {
		return nil, fmt.Errorf("%w: size %dx%d for a %dx%d image", colorcode.ErrInvalidRecipe,
			recipe.Size.Width, recipe.Size.Height, size.Width, size.Height)
	}
	scaled := size != recipe.Size
	ref := out
	if scaled {
		ref = pixel.ToRGBA(resize.Resize(uint(recipe.Size.Width), uint(recipe.Size.Height), img, resize.Bilinear))
	}
	sx := float64(size.Width) / float64(recipe.Size.Width)
	sy := float64(size.Height) / float64(recipe.Size.Height)

	bs := recipe.Transform.BlockSize
	if !geometry.FromImage(ref.Rect).Contains(recipe.ClipArea) || recipe.Blocks() > recipe.ClipArea.Blocks(bs) {
		return nil, fmt.Errorf("%w: clip area %+v", colorcode.ErrInvalidRecipe, recipe.ClipArea)
	}
	var next int
	for _, a := range recipe.Areas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := a.Blocks(bs)
		blocks := make([]pixel.Group, n)
		for i := range blocks {
			blocks[i] = pixel.Read(ref, blockAt(recipe.ClipArea, bs, next+i))
		}
		next += n

		groups, err := transform.Revert(blocks, recipe.Transform, key)
		if err != nil {
			return nil, err
		}
		pixels, err := transform.Ungroup(groups, a.Width, a.Height, bs)
		if err != nil {
			return nil, err
		}

		target := a.Offset(recipe.MainArea.X, recipe.MainArea.Y)
		if !scaled {
			pixel.Write(out, target.Image(), pixels)
		} else {
			revealed := pixel.Image(pixels, a.Width, a.Height)
			target = geometry.Scale(target, sx, sy)
			if target.Empty() {
				continue
			}
			paste(out, target.Image(), resize.Resize(uint(target.Width), uint(target.Height), revealed, resize.Bilinear))
		}

		if d.opts.Smooth {
			smoothSeams(out, target.Image(), float64(bs)*sx, float64(bs)*sy)
		}
	}

	if d.opts.Crop {
		main := geometry.Scale(recipe.MainArea, sx, sy).Image().Intersect(out.Rect)
		return pixel.ToRGBA(out.SubImage(main)), nil
	}
	return out, nil
}

// plausibleScale reports whether the recorded size is within maxRescale times the actual size on both axes
func plausibleScale(actual, recorded geometry.Size) bool {
	within := func(a, r int) bool {
		return r <= a*maxRescale && a <= r*maxRescale
	}
	return within(actual.Width, recorded.Width) && within(actual.Height, recorded.Height)
}

// smoothSeams replaces the pixels on both sides of every block boundary inside r
// with their median filtered value
func smoothSeams(img *image.RGBA, r image.Rectangle, stepX, stepY float64) {
	r = r.Intersect(img.Rect)
	if r.Empty() {
		return
	}
	g := gift.New(gift.Median(3, false))
	filtered := image.NewRGBA(g.Bounds(r))
	g.Draw(filtered, img.SubImage(r))

	seamX := seams(r.Dx(), stepX)
	seamY := seams(r.Dy(), stepY)
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			if !seamX[x] && !seamY[y] {
				continue
			}
			si := filtered.PixOffset(filtered.Rect.Min.X+x, filtered.Rect.Min.Y+y)
			di := img.PixOffset(r.Min.X+x, r.Min.Y+y)
			copy(img.Pix[di:di+4], filtered.Pix[si:si+4])
		}
	}
}

// seams marks the offsets next to a block boundary
func seams(length int, step float64) []bool {
	marks := make([]bool, length)
	if step < 2 {
		return marks
	}
	for b := step; b < float64(length); b += step {
		edge := int(math.Round(b))
		for _, i := range []int{edge - 1, edge} {
			if i >= 0 && i < length {
				marks[i] = true
			}
		}
	}
	return marks
}

// Reveal reveals the obfuscated areas of the image. An empty key means DefaultKey.
//
// If the image was obfuscated with a custom key, an empty key fails with ErrKeyRequired
// instead of silently revealing scrambled blocks.
func Reveal(img image.Image, key string) (*image.RGBA, error) {
	return NewDecoder(DecodeOptions{Key: key}).Decode(img)
}
