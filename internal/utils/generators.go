package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Characters that survive being read aloud or copied from an email.
const refAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateAccessToken returns an unguessable guest portal credential.
func GenerateAccessToken() string {
	return uuid.NewString()
}

// GenerateBookingRef returns a human-shareable reference such as BOOK-7KQ2XM.
func GenerateBookingRef() (string, error) {
	code, err := randomCode(6)
	if err != nil {
		return "", err
	}
	return "BOOK-" + code, nil
}

// GenerateEventCode returns the shareable code printed on event material.
func GenerateEventCode() (string, error) {
	code, err := randomCode(6)
	if err != nil {
		return "", err
	}
	return "EVT-" + code, nil
}

func randomCode(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(refAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		out[i] = refAlphabet[idx.Int64()]
	}
	return string(out), nil
}
