// Package shortcode generates random short codes for links.
package shortcode

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	// Alphabet is the set of characters a generated code is drawn from.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// Length is the length of a generated code.
	Length = 6
)

// Generate returns a random code of Length characters drawn uniformly from Alphabet.
// It is safe for concurrent use.
func Generate() string {
	return gonanoid.MustGenerate(Alphabet, Length)
}
