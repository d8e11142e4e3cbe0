package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	argon, err := NewPasswordHasher(HashArgon2id)
	require.NoError(t, err)

	for name, h := range map[string]*PasswordHasher{"bcrypt": newTestHasher(), "argon2id": argon} {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("s3cret")
			require.NoError(t, err)
			assert.NotEqual(t, "s3cret", hash)

			ok, err := h.Compare(hash, "s3cret")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Compare(hash, "S3cret")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPasswordHasherVerifiesEitherAlgorithm(t *testing.T) {
	argon, err := NewPasswordHasher(HashArgon2id)
	require.NoError(t, err)
	argonHash, err := argon.Hash("pw")
	require.NoError(t, err)

	// a bcrypt hasher still accepts stored argon2id hashes
	ok, err := newTestHasher().Compare(argonHash, "pw")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasherRejectsUnknownAlgorithm(t *testing.T) {
	_, err := NewPasswordHasher("md5")
	assert.Error(t, err)
}

func TestPasswordHasherMalformedHash(t *testing.T) {
	_, err := newTestHasher().Compare("plaintext", "plaintext")
	assert.Error(t, err)
}
