package obfuscate

import "errors"

var (
	errInvalidKeyLength = errors.New("key length must be at least one character")
	errUnstableLayout   = errors.New("the colour byte code height did not settle")

	// ErrNoAreas is returned when there is nothing to obfuscate
	ErrNoAreas = errors.New("obfuscate: at least one area is required")
	// ErrKeyRequired is returned when the image was obfuscated with a user key and none was provided
	ErrKeyRequired = errors.New("obfuscate: the image was obfuscated with a custom key")
	// ErrOperationInProgress is the result of any invalid operation on an entity which is already being processed
	ErrOperationInProgress = errors.New("the operation is in progress")
	// ErrClosedTap will be raised if the user tries to push to the engine from a closed Tap
	ErrClosedTap = errors.New("cannot push from a closed tap")
)
