package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomString returns size bytes from crypto/rand, base64url encoded without padding.
func RandomString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("utils: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
