// Package b64 implements the text side of the colour byte code alphabet:
// padded standard base64 plus the mapping between its characters and 6-bit symbols.
package b64

import (
	"encoding/base64"
)

const (
	// Alphabet the 64 characters which have a colour representation, indexed by symbol
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	// Padding the padding character of the text encoding. It has no symbol.
	Padding = '='
	// Symbols number of symbols in the alphabet
	Symbols = len(Alphabet)
)

var symbols [256]int8

func init() {
	for i := range symbols {
		symbols[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		symbols[Alphabet[i]] = int8(i)
	}
}

// Encode encodes the input using base64 padded standard encoder
func Encode(in []byte) string {
	return base64.StdEncoding.EncodeToString(in)
}

// Decode decodes a base64 encoded string using padded standard encoder
func Decode(in string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(in)
}

// Symbol returns the symbol of an alphabet character.
// The second return value is false for the padding character and anything outside the alphabet.
func Symbol(c byte) (int, bool) {
	s := symbols[c]
	return int(s), s >= 0
}

// Char returns the alphabet character of a symbol in [0, 63]
func Char(symbol int) byte {
	return Alphabet[symbol&(Symbols-1)]
}
