package colorcode

import (
	"bytes"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/pixel"
	"github.com/xitonix/xmask/transform"
)

const (
	flagPermute = 1 << iota
	flagRotate
	flagNegate
	flagKey
	flagShift
)

// every decoded coordinate and size must fit in this
const maxValue = math.MaxInt32

// Recipe describes one obfuscation pass. It is everything the decoder needs, apart from the key.
//
// All rectangles are in pixels of the encoded image. Areas are relative to MainArea.
type Recipe struct {
	// Version the format version the recipe was read with. Zero lets Encode choose.
	Version int
	// Transform the stages applied to every area
	Transform transform.Options
	// HasKey true if a user key was used instead of the default one
	HasKey bool
	// Fill the colour painted over the obfuscated areas
	Fill pixel.Pixel
	// Clip the edge of the output holding the scrambled blocks
	Clip geometry.Edge
	// Areas the obfuscated rectangles, aligned to the block size
	Areas []geometry.Rect
	// ClipArea the region holding the scrambled blocks, row-major
	ClipArea geometry.Rect
	// MainArea the region holding the original image
	MainArea geometry.Rect
	// Size the size of the whole output image, colour byte code included
	Size geometry.Size
}

// Blocks returns the total number of blocks of all the areas
func (r *Recipe) Blocks() int {
	var n int
	for _, a := range r.Areas {
		n += a.Blocks(r.Transform.BlockSize)
	}
	return n
}

// MarshalBinary serialises the recipe as a msgpack array. Widths and heights of the areas
// and of the clip area are stored as block counts.
func (r *Recipe) MarshalBinary() ([]byte, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(r.toWire()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecipe, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary parses a recipe serialised by MarshalBinary.
// Trailing bytes are treated as an error.
func (r *Recipe) UnmarshalBinary(data []byte) error {
	rd := bytes.NewReader(data)
	var w wireRecipe
	if err := msgpack.NewDecoder(rd).Decode(&w); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecipe, err)
	}
	if rd.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidRecipe, rd.Len())
	}

	out, err := w.recipe()
	if err != nil {
		return err
	}
	if err := out.validate(); err != nil {
		return err
	}

	out.Version = r.Version
	*r = *out
	return nil
}

func (r *Recipe) validate() error {
	bs := r.Transform.BlockSize
	if bs <= 0 {
		return fmt.Errorf("%w: block size %d", ErrInvalidRecipe, bs)
	}
	if r.Clip > geometry.Right {
		return fmt.Errorf("%w: clip edge %d", ErrInvalidRecipe, r.Clip)
	}
	if r.Transform.Shift != nil {
		if err := r.Transform.Shift.Validate(); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidRecipe, err)
		}
	}
	if r.Size.Width <= 0 || r.Size.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidRecipe, r.Size.Width, r.Size.Height)
	}
	if len(r.Areas) == 0 {
		return fmt.Errorf("%w: no areas", ErrInvalidRecipe)
	}
	rects := append([]geometry.Rect{r.MainArea, r.ClipArea}, r.Areas...)
	for i, a := range rects {
		if a.X < 0 || a.Y < 0 || a.Empty() {
			return fmt.Errorf("%w: rectangle %+v", ErrInvalidRecipe, a)
		}
		if i > 0 && (a.Width%bs != 0 || a.Height%bs != 0) {
			return fmt.Errorf("%w: %+v is not made of %dpx blocks", ErrInvalidRecipe, a, bs)
		}
	}
	main := geometry.R(0, 0, r.MainArea.Width, r.MainArea.Height)
	for _, a := range r.Areas {
		if !main.Contains(a) {
			return fmt.Errorf("%w: area %+v is outside the main area", ErrInvalidRecipe, a)
		}
	}
	return nil
}

type wireRect struct {
	_msgpack struct{} `msgpack:",as_array"`
	X, Y     int
	W, H     int
}

type wireShift struct {
	_msgpack struct{} `msgpack:",as_array"`
	Contrast float64
	Target   uint32
}

type wireRecipe struct {
	_msgpack  struct{} `msgpack:",as_array"`
	Flags     uint8
	BlockSize int
	Clip      uint8
	Fill      uint32
	Shift     *wireShift
	Width     int
	Height    int
	Main      wireRect
	ClipArea  wireRect
	Areas     []wireRect
}

func (r *Recipe) toWire() *wireRecipe {
	bs := r.Transform.BlockSize
	w := &wireRecipe{
		BlockSize: bs,
		Clip:      uint8(r.Clip),
		Fill:      packRGB(r.Fill),
		Width:     r.Size.Width,
		Height:    r.Size.Height,
		Main:      toWireRect(r.MainArea, 1),
		ClipArea:  toWireRect(r.ClipArea, bs),
		Areas:     make([]wireRect, len(r.Areas)),
	}
	if r.Transform.Permute {
		w.Flags |= flagPermute
	}
	if r.Transform.Rotate {
		w.Flags |= flagRotate
	}
	if r.Transform.Negate {
		w.Flags |= flagNegate
	}
	if r.HasKey {
		w.Flags |= flagKey
	}
	if s := r.Transform.Shift; s != nil {
		w.Shift = &wireShift{Contrast: s.Contrast, Target: packRGB(s.Target)}
	}
	for i, a := range r.Areas {
		w.Areas[i] = toWireRect(a, bs)
	}
	return w
}

func (w *wireRecipe) recipe() (*Recipe, error) {
	if w.Flags >= flagShift<<1 || (w.Flags&flagShift != 0) != (w.Shift != nil) {
		return nil, fmt.Errorf("%w: flags %b", ErrInvalidRecipe, w.Flags)
	}
	bs := w.BlockSize
	if bs <= 0 || bs > maxValue {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidRecipe, bs)
	}

	out := &Recipe{
		Transform: transform.Options{
			BlockSize: bs,
			Permute:   w.Flags&flagPermute != 0,
			Rotate:    w.Flags&flagRotate != 0,
			Negate:    w.Flags&flagNegate != 0,
		},
		HasKey: w.Flags&flagKey != 0,
		Clip:   geometry.Edge(w.Clip),
		Size:   geometry.Size{Width: w.Width, Height: w.Height},
		Areas:  make([]geometry.Rect, len(w.Areas)),
	}
	var err error
	if out.Fill, err = unpackRGB(w.Fill); err != nil {
		return nil, err
	}
	if w.Shift != nil {
		target, err := unpackRGB(w.Shift.Target)
		if err != nil {
			return nil, err
		}
		out.Transform.Shift = &transform.ColorShift{Contrast: w.Shift.Contrast, Target: target}
	}
	if w.Width > maxValue || w.Height > maxValue {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidRecipe, w.Width, w.Height)
	}
	if out.MainArea, err = w.Main.rect(1); err != nil {
		return nil, err
	}
	if out.ClipArea, err = w.ClipArea.rect(bs); err != nil {
		return nil, err
	}
	for i, a := range w.Areas {
		if out.Areas[i], err = a.rect(bs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toWireRect(r geometry.Rect, unit int) wireRect {
	return wireRect{X: r.X, Y: r.Y, W: r.Width / unit, H: r.Height / unit}
}

func (w wireRect) rect(unit int) (geometry.Rect, error) {
	if w.X < 0 || w.Y < 0 || w.W < 0 || w.H < 0 ||
		w.X > maxValue || w.Y > maxValue || w.W > maxValue/unit || w.H > maxValue/unit {
		return geometry.Rect{}, fmt.Errorf("%w: rectangle %d,%d,%d,%d is out of range", ErrInvalidRecipe, w.X, w.Y, w.W, w.H)
	}
	return geometry.R(w.X, w.Y, w.W*unit, w.H*unit), nil
}

func packRGB(p pixel.Pixel) uint32 {
	return uint32(p.R)<<16 | uint32(p.G)<<8 | uint32(p.B)
}

func unpackRGB(v uint32) (pixel.Pixel, error) {
	if v > 0xffffff {
		return pixel.Pixel{}, fmt.Errorf("%w: colour %#x", ErrInvalidRecipe, v)
	}
	return pixel.Pixel{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
