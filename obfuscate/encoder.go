package obfuscate

import (
	"context"
	"fmt"
	"image"

	"github.com/xitonix/xmask/colorcode"
	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/pixel"
	"github.com/xitonix/xmask/transform"
)

// Encoder is the type that obfuscates rectangular areas of an image.
//
// The pixels of every area are cut into blocks and scrambled with the key. The scrambled blocks
// are moved next to the image on the clip edge, the areas are painted with the fill colour and
// a colour byte code describing the operation is appended to the bottom of the output.
type Encoder struct {
	opts Options
}

// NewEncoder creates a new Encoder object
func NewEncoder(opts Options) *Encoder {
	return &Encoder{opts: opts}
}

// Encode obfuscates the areas of the image. The input image is not modified.
func (e *Encoder) Encode(img image.Image, areas []geometry.Rect) (*image.RGBA, error) {
	return e.EncodeContext(context.Background(), img, areas)
}

// EncodeContext obfuscates the areas of the image and receives cancellation signal on the context parameter.
// The context is checked between the areas.
func (e *Encoder) EncodeContext(ctx context.Context, img image.Image, areas []geometry.Rect) (*image.RGBA, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}
	if len(areas) == 0 {
		return nil, ErrNoAreas
	}

	src := pixel.ToRGBA(img)
	width, height := src.Rect.Dx(), src.Rect.Dy()
	bs := e.opts.BlockSize

	aligned := make([]geometry.Rect, len(areas))
	for i, a := range areas {
		r, err := geometry.AlignToGrid(a, width, height, bs)
		if err != nil {
			return nil, fmt.Errorf("area %d %+v: %w", i, a, err)
		}
		aligned[i] = r
	}

	key, custom := effectiveKey(e.opts.Key)
	var blocks []pixel.Group
	for _, a := range aligned {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		groups, err := cut(src, a, bs)
		if err != nil {
			return nil, err
		}
		scrambled, err := transform.Apply(groups, e.opts.Options, key)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, scrambled...)
	}

	recipe := &colorcode.Recipe{
		Transform: e.opts.Options,
		HasKey:    custom,
		Fill:      e.opts.Fill,
		Clip:      e.opts.Clip,
		Areas:     aligned,
	}
	recipe.MainArea, recipe.ClipArea = layoutClip(e.opts.Clip, width, height, bs, len(blocks))

	content := recipe.MainArea.Image().Union(recipe.ClipArea.Image())
	if err := fitSize(recipe, content.Dx(), content.Dy()); err != nil {
		return nil, err
	}
	strip, err := colorcode.Encode(recipe, recipe.Size.Width)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, recipe.Size.Width, recipe.Size.Height))
	pixel.Fill(out, out.Bounds(), black)
	paste(out, recipe.MainArea.Image(), src)
	for _, a := range aligned {
		pixel.Fill(out, a.Offset(recipe.MainArea.X, recipe.MainArea.Y).Image(), e.opts.Fill)
	}
	for k, b := range blocks {
		pixel.Write(out, blockAt(recipe.ClipArea, bs, k), b)
	}
	paste(out, image.Rect(0, content.Dy(), recipe.Size.Width, recipe.Size.Height), strip)
	return out, nil
}

// layoutClip places the image and the region holding n blocks next to each other.
// Top and bottom regions are as wide as the image, left and right ones as tall.
func layoutClip(edge geometry.Edge, width, height, blockSize, n int) (main, clip geometry.Rect) {
	if edge.Horizontal() {
		cols := width / blockSize
		rows := (n + cols - 1) / cols
		clip = geometry.R(0, 0, cols*blockSize, rows*blockSize)
		main = geometry.R(0, 0, width, height)
		if edge == geometry.Top {
			main.Y = clip.Height
		} else {
			clip.Y = height
		}
		return main, clip
	}

	rows := height / blockSize
	cols := (n + rows - 1) / rows
	clip = geometry.R(0, 0, cols*blockSize, rows*blockSize)
	main = geometry.R(0, 0, width, height)
	if edge == geometry.Left {
		main.X = clip.Width
	} else {
		clip.X = width
	}
	return main, clip
}

// fitSize sets the recipe size to the content plus the colour byte code beneath it.
// Content narrower than the shortest strip is padded on the right.
func fitSize(recipe *colorcode.Recipe, width, height int) error {
	recipe.Size = geometry.Size{Width: width, Height: height}
	for i := 0; i < maxLayoutRounds; i++ {
		w := width
		if min := colorcode.MinStripWidth(recipe.Size); w < min {
			w = min
		}
		h, err := colorcode.Measure(recipe, w)
		if err != nil {
			return err
		}
		next := geometry.Size{Width: w, Height: height + h}
		if next == recipe.Size {
			return nil
		}
		recipe.Size = next
	}
	return errUnstableLayout
}

// Obfuscate obfuscates the areas of the image using the provided options
func Obfuscate(img image.Image, areas []geometry.Rect, opts Options) (*image.RGBA, error) {
	return NewEncoder(opts).Encode(img, areas)
}
