package obfuscate

import (
	"strings"

	"github.com/NebulousLabs/fastrand"
)

// DefaultKey is used whenever no key is provided. Images obfuscated with it can be revealed by anyone.
const DefaultKey = "74k4H1r0"

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomKey generates a random alphanumeric key of the given length
func RandomKey(length int) (string, error) {
	if length < 1 {
		return "", errInvalidKeyLength
	}
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(keyAlphabet[fastrand.Intn(len(keyAlphabet))])
	}
	return sb.String(), nil
}

// effectiveKey returns the key the transform chain runs with and whether it was user provided
func effectiveKey(key string) (string, bool) {
	if key == "" {
		return DefaultKey, false
	}
	return key, true
}
