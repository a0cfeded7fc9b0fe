package obfuscate

import (
	"fmt"

	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/pixel"
	"github.com/xitonix/xmask/transform"
)

// Options obfuscation settings
type Options struct {
	transform.Options
	// Key the secret the block transform is derived from. Empty means DefaultKey.
	Key string
	// Clip the edge of the output which receives the scrambled blocks
	Clip geometry.Edge
	// Fill the colour painted over the obfuscated areas
	Fill pixel.Pixel
}

// DefaultOptions returns 16px blocks with permutation, rotation and negation enabled,
// the scrambled blocks at the bottom and black areas
func DefaultOptions() Options {
	return Options{
		Options: transform.Options{
			BlockSize: defaultBlockSize,
			Permute:   true,
			Rotate:    true,
			Negate:    true,
		},
		Clip: geometry.Bottom,
		Fill: black,
	}
}

// Validate checks the transform settings and the clip edge
func (o Options) Validate() error {
	if err := o.Options.Validate(); err != nil {
		return err
	}
	if o.Clip > geometry.Right {
		return fmt.Errorf("%w: %d", geometry.ErrInvalidEdge, o.Clip)
	}
	return nil
}

// DecodeOptions reveal settings
type DecodeOptions struct {
	// Key the key the image was obfuscated with. Empty means DefaultKey.
	Key string
	// Crop returns the main area only, without the scrambled blocks and the colour byte code
	Crop bool
	// Smooth runs a median filter over the block seams of the revealed areas.
	// It hides resampling artefacts of scaled images at the cost of exactness.
	Smooth bool
}
