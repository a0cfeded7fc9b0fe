// Package imageio reads and writes the image formats supported by xmask.
package imageio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
)

// Format an image file format
type Format int8

const (
	// Auto keeps the format of the input, falling back to PNG for lossy inputs
	Auto Format = iota
	// PNG portable network graphics
	PNG
	// JPEG lossy. Supported as input only; writing it destroys the colour byte code.
	JPEG
	// GIF paletted
	GIF
	// BMP windows bitmap
	BMP
	// QOI quite OK image format
	QOI
)

var (
	// ErrUnknownFormat is returned for formats xmask cannot read or write
	ErrUnknownFormat = errors.New("imageio: unknown image format")

	qoiMagic = []byte("qoif")
)

var names = map[Format]string{
	Auto: "auto",
	PNG:  "png",
	JPEG: "jpeg",
	GIF:  "gif",
	BMP:  "bmp",
	QOI:  "qoi",
}

// String returns the string representation of the format
func (f Format) String() string {
	if n, ok := names[f]; ok {
		return n
	}
	return "unknown"
}

// Extension returns the file extension of the format, including the dot
func (f Format) Extension() string {
	switch f {
	case JPEG:
		return ".jpg"
	case Auto:
		return ""
	}
	return "." + f.String()
}

// Lossless returns true if an image written in this format reads back pixel for pixel
func (f Format) Lossless() bool {
	return f == PNG || f == BMP || f == QOI
}

// Output resolves the format to write for an image read in the input format
func (f Format) Output(input Format) Format {
	if f != Auto {
		return f
	}
	if input.Lossless() {
		return input
	}
	return PNG
}

// ParseFormat parses a format name. "jpg" is accepted as an alias of "jpeg".
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "jpg" {
		return JPEG, nil
	}
	for f, n := range names {
		if n == s {
			return f, nil
		}
	}
	return Auto, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath returns the format matching the extension of the path
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return Auto, fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	f, err := ParseFormat(ext)
	if err != nil || f == Auto {
		return Auto, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return f, nil
}

// Decode reads an image and detects its format from the content
func Decode(r io.Reader) (image.Image, Format, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(qoiMagic))
	if bytes.Equal(magic, qoiMagic) {
		img, err := qoi.Decode(br)
		if err != nil {
			return nil, QOI, err
		}
		return img, QOI, nil
	}

	img, name, err := image.Decode(br)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, Auto, ErrUnknownFormat
		}
		return nil, Auto, err
	}
	f, err := ParseFormat(name)
	if err != nil {
		return nil, Auto, err
	}
	return img, f, nil
}

// Encode writes the image in the given format. Auto is written as PNG.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case Auto, PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case GIF:
		return gif.Encode(w, img, nil)
	case BMP:
		return bmp.Encode(w, img)
	case QOI:
		return qoi.Encode(w, img)
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, f)
}
