package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const companyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCompanyCode returns a random upper-case alphanumeric code of the given length.
// Ambiguous characters (0/O, 1/I) are left out of the alphabet.
func GenerateCompanyCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid company code length %d", length)
	}

	max := big.NewInt(int64(len(companyCodeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		code[i] = companyCodeAlphabet[n.Int64()]
	}

	return string(code), nil
}
