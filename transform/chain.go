package transform

import (
	"fmt"

	"github.com/xitonix/xmask/hash"
	"github.com/xitonix/xmask/pixel"
)

// Options selects the stages of the transform chain
type Options struct {
	// BlockSize the side of the square blocks in pixels
	BlockSize int
	// Permute shuffles the blocks
	Permute bool
	// Rotate rotates and flips every block
	Rotate bool
	// Negate inverts a keyed subset of the colour channels of every block
	Negate bool
	// Shift lowers the contrast and tints the blocks. Nil disables the stage.
	Shift *ColorShift
}

// Validate checks the block size and the colour shift parameters
func (o Options) Validate() error {
	if o.BlockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrGridMismatch, o.BlockSize)
	}
	if o.Shift != nil {
		return o.Shift.Validate()
	}
	return nil
}

// Apply runs the enabled stages in order: permutation, rotation then flip, negation and colour shift.
func Apply(groups []pixel.Group, opts Options, key string) ([]pixel.Group, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	digits := hash.Digits(key)
	if opts.Permute {
		groups = Permute(groups, hash.Sequence(key, len(groups)))
	}
	if opts.Rotate {
		groups = Flip(Rotate(groups, digits), digits)
	}
	if opts.Negate {
		groups = Negate(groups, digits)
	}
	if opts.Shift != nil {
		groups = ShiftColor(groups, *opts.Shift)
	}
	return groups, nil
}

// Revert undoes Apply by running the inverse stages in reverse order.
// A wrong key is not detected: it silently yields scrambled blocks.
func Revert(groups []pixel.Group, opts Options, key string) ([]pixel.Group, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	digits := hash.Digits(key)
	if opts.Shift != nil {
		groups = UnshiftColor(groups, *opts.Shift)
	}
	if opts.Negate {
		groups = Negate(groups, digits)
	}
	if opts.Rotate {
		groups = Unrotate(Flip(groups, digits), digits)
	}
	if opts.Permute {
		groups = InversePermute(groups, hash.Sequence(key, len(groups)))
	}
	return groups, nil
}
