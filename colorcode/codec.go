// Package colorcode stores a Recipe inside an image as a strip of coloured cells.
//
// The recipe is serialised, optionally compressed, prefixed with its length and encoded as
// padded base64 text. Every character becomes one cell painted with its palette colour.
// The strip is anchored at the bottom edge of the image and its first row is the bottom one.
//
// The first four cells are the header:
//
//	0: blocks per row / 64
//	1: format version
//	2: payload length % 64
//	3: payload length / 64
//
// The last cell of the bottom row holds blocks per row % 64. It is skipped by the payload,
// so the reader can locate both halves of the row count from the two bottom corners.
// Unused cells are painted with palette.Sentinel.
package colorcode

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/xitonix/xmask/b64"
	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/palette"
	"github.com/xitonix/xmask/pixel"
)

const (
	// Version1 the payload is the raw serialised recipe
	Version1 = 1
	// Version2 the payload is the zstd compressed serialised recipe
	Version2 = 2

	// MinBlockWidth the smallest cell side in pixels
	MinBlockWidth = 8
	// ReferenceWidth the long side of the image for which the cells are MinBlockWidth wide
	ReferenceWidth = 1000
	// MinBlocksPerRow the header plus the corner cell must fit in the bottom row
	MinBlocksPerRow = 6
	// MaxPayload the largest payload the two length cells can describe
	MaxPayload = b64.Symbols*b64.Symbols - 1

	headerCells = 4
	maxColumns  = b64.Symbols*b64.Symbols - 1
	// how far inside the bottom corners the reader samples the row count
	cornerInset = 2
	// trailing zero symbols tried as padding
	maxPaddingRetries = 4
)

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderCRC(false),
			zstd.WithEncoderConcurrency(1))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(1<<20))
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// BlockWidth returns the side of a cell for an image of the given size.
// It grows with the long side of the image so that the cells survive down-scaling.
func BlockWidth(size geometry.Size) int {
	long := size.Width
	if size.Height > long {
		long = size.Height
	}
	w := int(math.Ceil(float64(MinBlockWidth) * float64(long) / ReferenceWidth))
	if w < MinBlockWidth {
		return MinBlockWidth
	}
	return w
}

// MinStripWidth returns the narrowest strip which can hold the header row for an image of the given size
func MinStripWidth(size geometry.Size) int {
	return MinBlocksPerRow * BlockWidth(size)
}

type layout struct {
	cells  []pixel.Pixel
	cols   int
	cell   float64
	height int
}

// Measure returns the height of the strip Encode would render for the recipe
func Measure(r *Recipe, width int) (int, error) {
	l, err := newLayout(r, width)
	if err != nil {
		return 0, err
	}
	return l.height, nil
}

// Encode renders the recipe as a strip of the given width.
// The version is chosen automatically unless r.Version is set.
func Encode(r *Recipe, width int) (*image.RGBA, error) {
	l, err := newLayout(r, width)
	if err != nil {
		return nil, err
	}

	strip := image.NewRGBA(image.Rect(0, 0, width, l.height))
	pixel.Fill(strip, strip.Bounds(), palette.Sentinel)
	for i, c := range l.cells {
		pixel.Fill(strip, l.bounds(i, width, l.height), c)
	}
	return strip, nil
}

func newLayout(r *Recipe, width int) (*layout, error) {
	text, version, err := encodeText(r)
	if err != nil {
		return nil, err
	}
	if len(text) > MaxPayload {
		return nil, fmt.Errorf("%w: %d symbols", ErrRecipeTooLarge, len(text))
	}

	bw := BlockWidth(r.Size)
	cols := width / bw
	if cols < MinBlocksPerRow {
		return nil, fmt.Errorf("%w: %d cells of %dpx in %dpx", ErrStripTooNarrow, cols, bw, width)
	}
	if cols > maxColumns {
		cols = maxColumns
	}

	cells := make([]pixel.Pixel, 0, headerCells+len(text)+1)
	cells = append(cells,
		palette.SymbolToColor(cols/b64.Symbols),
		palette.SymbolToColor(version),
		palette.SymbolToColor(len(text)%b64.Symbols),
		palette.SymbolToColor(len(text)/b64.Symbols))
	for _, c := range palette.TextToColors(text) {
		if len(cells) == cols-1 {
			cells = append(cells, palette.SymbolToColor(cols%b64.Symbols))
		}
		cells = append(cells, c)
	}
	for len(cells) < cols {
		if len(cells) == cols-1 {
			cells = append(cells, palette.SymbolToColor(cols%b64.Symbols))
			break
		}
		cells = append(cells, palette.Sentinel)
	}

	rows := (len(cells) + cols - 1) / cols
	cell := float64(width) / float64(cols)
	return &layout{
		cells:  cells,
		cols:   cols,
		cell:   cell,
		height: int(math.Ceil(float64(rows) * cell)),
	}, nil
}

// bounds returns the pixels of the i-th cell, counting rows from the bottom of an image of the given size
func (l *layout) bounds(i, width, height int) image.Rectangle {
	c, r := i%l.cols, i/l.cols
	x0 := int(float64(c) * l.cell)
	x1 := int(float64(c+1) * l.cell)
	if c == l.cols-1 {
		x1 = width
	}
	y0 := height - int(float64(r+1)*l.cell)
	if y0 < 0 {
		y0 = 0
	}
	y1 := height - int(float64(r)*l.cell)
	return image.Rect(x0, y0, x1, y1)
}

// centre returns the middle pixel of the i-th cell
func (l *layout) centre(i, height int) (int, int) {
	c, r := i%l.cols, i/l.cols
	return int((float64(c) + 0.5) * l.cell), height - 1 - int((float64(r)+0.5)*l.cell)
}

// Decode reads the recipe from the bottom edge of the image.
func Decode(img image.Image) (*Recipe, error) {
	rgba := pixel.ToRGBA(img)
	width, height := rgba.Rect.Dx(), rgba.Rect.Dy()
	if width < MinBlocksPerRow || height <= cornerInset*2 {
		return nil, fmt.Errorf("%w: the image is too small", ErrUnreadable)
	}

	at := func(x, y int) pixel.Pixel {
		return pixel.Sample(rgba.Pix, rgba.Stride, x, y)
	}
	y := height - 1 - cornerInset
	high := palette.ColorToSymbol(at(cornerInset, y))
	low := palette.ColorToSymbol(at(width-1-cornerInset, y))
	cols := high*b64.Symbols + low
	if cols < MinBlocksPerRow || cols > width {
		return nil, fmt.Errorf("%w: invalid number of blocks per row (%d)", ErrUnreadable, cols)
	}

	l := &layout{cols: cols, cell: float64(width) / float64(cols)}
	sample := func(i int) pixel.Pixel {
		return at(l.centre(i, height))
	}
	symbol := func(i int) int {
		return palette.ColorToSymbol(sample(i))
	}

	version := symbol(1)
	if version != Version1 && version != Version2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	length := symbol(2) + symbol(3)*b64.Symbols
	if length == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnreadable)
	}

	last := headerCells + length
	if last > cols-1 {
		last++
	}
	if rows := (last + cols - 1) / cols; int(float64(rows)*l.cell) > height {
		return nil, fmt.Errorf("%w: the payload does not fit in the image", ErrUnreadable)
	}

	colors := make([]pixel.Pixel, 0, length)
	for i := headerCells; len(colors) < length; i++ {
		if i == cols-1 {
			continue
		}
		colors = append(colors, sample(i))
	}

	return decodeText(palette.ColorsToText(colors), version)
}

func encodeText(r *Recipe) (string, int, error) {
	raw, err := r.MarshalBinary()
	if err != nil {
		return "", 0, err
	}

	version := r.Version
	body := raw
	switch version {
	case 0, Version2:
		enc, _, err := codecs()
		if err != nil {
			return "", 0, err
		}
		compressed := enc.EncodeAll(raw, nil)
		if version == Version2 || len(compressed) < len(raw) {
			version, body = Version2, compressed
		} else {
			version = Version1
		}
	case Version1:
	default:
		return "", 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	payload := binary.AppendUvarint(make([]byte, 0, len(body)+binary.MaxVarintLen32), uint64(len(body)))
	return b64.Encode(append(payload, body...)), version, nil
}

// decodeText parses the payload text. Padding characters are read back as 'A' (symbol zero),
// so up to maxPaddingRetries trailing 'A's are tried as padding before giving up.
func decodeText(text string, version int) (*Recipe, error) {
	var lastErr error
	for _, candidate := range candidates(text) {
		payload, err := b64.Decode(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		r, err := parsePayload(payload, version)
		if err != nil {
			lastErr = err
			continue
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnreadable, lastErr)
}

func candidates(text string) []string {
	out := []string{text}
	zero := b64.Char(0)
	for k := 1; k <= maxPaddingRetries && k <= len(text); k++ {
		if text[len(text)-k] != zero {
			break
		}
		out = append(out, text[:len(text)-k]+strings.Repeat(string(b64.Padding), k))
	}
	return out
}

func parsePayload(payload []byte, version int) (*Recipe, error) {
	n, read := binary.Uvarint(payload)
	if read <= 0 {
		return nil, fmt.Errorf("%w: invalid length prefix", ErrInvalidRecipe)
	}
	body := payload[read:]
	if uint64(len(body)) != n {
		return nil, fmt.Errorf("%w: expected %d bytes, found %d", ErrInvalidRecipe, n, len(body))
	}

	if version == Version2 {
		_, dec, err := codecs()
		if err != nil {
			return nil, err
		}
		body, err = dec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRecipe, err)
		}
	}

	r := &Recipe{Version: version}
	if err := r.UnmarshalBinary(body); err != nil {
		return nil, err
	}
	return r, nil
}
