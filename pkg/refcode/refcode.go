// Package refcode generates the human-shareable order reference codes.
package refcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Length is the number of digits in a reference code.
	Length = 8

	min = 10_000_000
	max = 99_999_999
)

// New returns a random 8-digit numeric code. Digits only, so codes are
// URL-safe and easy to read over the phone. Uniqueness is enforced by the
// caller against storage, retrying on collision.
func New() (string, error) {
	span := big.NewInt(max - min + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generating reference code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+min), nil
}
