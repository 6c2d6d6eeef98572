package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// CredentialTagSHA256 marks a stored credential produced by HashCredential.
const CredentialTagSHA256 = "{SHA256}"

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// HashCredential returns the tagged, deterministic digest stored for secret.
func HashCredential(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return CredentialTagSHA256 + hex.EncodeToString(sum[:])
}

// CredentialVerifier checks a supplied secret against a stored credential.
//
// Stored credentials come in three shapes: a {SHA256} tagged digest, a
// bcrypt hash written by older tooling, and untagged plaintext from before
// hashing was introduced. Plaintext is only honoured when allowLegacy is set.
type CredentialVerifier struct {
	allowLegacy bool
}

func NewCredentialVerifier(allowLegacy bool) *CredentialVerifier {
	return &CredentialVerifier{allowLegacy: allowLegacy}
}

// Verify reports whether secret matches stored.
func (cv *CredentialVerifier) Verify(secret, stored string) bool {
	switch {
	case stored == "":
		return false
	case strings.HasPrefix(stored, CredentialTagSHA256):
		expected := CredentialTagSHA256 + strings.ToLower(stored[len(CredentialTagSHA256):])
		return constantTimeEqual(HashCredential(secret), expected)
	case isBcrypt(stored):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)) == nil
	case !cv.allowLegacy:
		return false
	default:
		if !constantTimeEqual(secret, stored) {
			return false
		}
		log.Warn().Msg("legacy plaintext credential matched")
		return true
	}
}

// NeedsUpgrade reports whether stored is in a representation other than
// the one HashCredential produces.
func NeedsUpgrade(stored string) bool {
	return !strings.HasPrefix(stored, CredentialTagSHA256)
}

func isBcrypt(stored string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(stored, prefix) {
			return true
		}
	}
	return false
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
