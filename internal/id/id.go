// Package id generates the short identifiers used as primary keys for
// request forms and their song-request entries.
//
// Identifiers are 8-character strings over the uppercase alphanumeric
// alphabet [A-Z0-9]. Generation is uniform and intentionally
// non-cryptographic: identifiers are public handles, not secrets.
// Uniqueness is not guaranteed here; callers de-duplicate against storage
// (see services.FormService and its bounded collision retry).
package id

import (
	"math/rand/v2"
	"strings"
)

const (
	// Alphabet is the 36-symbol set identifiers are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Length is the fixed identifier length.
	Length = 8
)

// Generator produces candidate identifiers. Implementations never fail;
// collision handling belongs to the caller.
type Generator interface {
	Generate() string
}

// RandGenerator is the default Generator backed by math/rand/v2.
// The zero value is ready to use and safe for concurrent callers.
type RandGenerator struct{}

// Generate returns a fresh 8-character candidate identifier. Each character
// is drawn independently and uniformly from Alphabet.
func (RandGenerator) Generate() string {
	var b [Length]byte
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b[:])
}

// Normalize upper-cases a caller-supplied code and reports whether it is a
// well-formed identifier: exactly Length characters, all within Alphabet.
// Malformed input returns ("", false).
func Normalize(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != Length {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(Alphabet, rune(code[i])) {
			return "", false
		}
	}
	return code, true
}
