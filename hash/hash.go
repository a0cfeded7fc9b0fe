// Package hash turns secret strings into the deterministic index sequences which drive every keyed transform.
package hash

import (
	"crypto/sha512"
	"encoding/hex"
)

// SHA512 returns a 64 bytes SHA512 hash of the input
func SHA512(in []byte) ([]byte, error) {
	h := sha512.New()
	_, err := h.Write(in)
	if err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// Sequence returns the hex digits of the SHA512 hash of the key as integers in [0, 15],
// each multiplied by ceil(length/16) so that the values can address indices up to length.
//
// A length of 16 or less (including zero) leaves the digits unscaled.
// The result always has 128 entries; callers index it modulo its length.
func Sequence(key string, length int) []int {
	sum, err := SHA512([]byte(key))
	if err != nil {
		// hash.Hash.Write never fails
		panic(err)
	}

	scale := (length + 15) / 16
	if scale < 1 {
		scale = 1
	}

	digits := hex.EncodeToString(sum)
	seq := make([]int, len(digits))
	for i := 0; i < len(digits); i++ {
		seq[i] = hexValue(digits[i]) * scale
	}
	return seq
}

// Digits returns the unscaled sequence of the key
func Digits(key string) []int {
	return Sequence(key, 0)
}

func hexValue(c byte) int {
	if c >= 'a' {
		return int(c-'a') + 10
	}
	return int(c - '0')
}
