package colorcode

import "errors"

var (
	// ErrUnreadable is returned when no colour byte code can be read from the bottom of an image
	ErrUnreadable = errors.New("colorcode: could not find a readable colour byte code")
	// ErrUnsupportedVersion is returned when the header carries an unknown format version
	ErrUnsupportedVersion = errors.New("colorcode: unsupported format version")
	// ErrStripTooNarrow is returned when the strip cannot hold a single header row
	ErrStripTooNarrow = errors.New("colorcode: the strip is too narrow")
	// ErrRecipeTooLarge is returned when the serialised recipe exceeds the payload length field
	ErrRecipeTooLarge = errors.New("colorcode: the recipe is too large")
	// ErrInvalidRecipe is returned when a recipe cannot be serialised or the decoded fields are inconsistent
	ErrInvalidRecipe = errors.New("colorcode: invalid recipe")
)
