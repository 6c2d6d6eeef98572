package auth_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/wildlife-registry/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashCredential(t *testing.T) {
	digest := auth.HashCredential("secret")

	require.Equal(t, "{SHA256}2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b", digest)
	require.Equal(t, digest, auth.HashCredential("secret"))
	require.NotEqual(t, digest, auth.HashCredential("Secret"))
}

func TestCredentialVerifier_Verify(t *testing.T) {
	bcryptHash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	digest := auth.HashCredential("secret")

	tests := []struct {
		name        string
		allowLegacy bool
		secret      string
		stored      string
		want        bool
	}{
		{"tagged digest matches", true, "secret", digest, true},
		{"tagged digest wrong secret", true, "wrong", digest, false},
		{"tagged digest upper-case hex", false, "secret", "{SHA256}" + strings.ToUpper(digest[len("{SHA256}"):]), true},
		{"bcrypt matches", false, "secret", string(bcryptHash), true},
		{"bcrypt wrong secret", false, "wrong", string(bcryptHash), false},
		{"legacy plaintext allowed", true, "secret", "secret", true},
		{"legacy plaintext wrong secret", true, "wrong", "secret", false},
		{"legacy plaintext disabled", false, "secret", "secret", false},
		{"empty stored credential", true, "", "", false},
		{"digest is not accepted as a password", true, digest, digest, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			verifier := auth.NewCredentialVerifier(tc.allowLegacy)
			require.Equal(t, tc.want, verifier.Verify(tc.secret, tc.stored))
		})
	}
}

func TestNeedsUpgrade(t *testing.T) {
	require.False(t, auth.NeedsUpgrade(auth.HashCredential("secret")))
	require.True(t, auth.NeedsUpgrade("secret"))
	require.True(t, auth.NeedsUpgrade("$2a$10$abcdefghijklmnopqrstuv"))
}
