package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hash algorithms
const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

const argon2idPrefix = "$argon2id$"

// PasswordHasher creates hashes with one algorithm and verifies hashes of
// any supported algorithm, picked by the stored hash's prefix
type PasswordHasher struct {
	algo       string
	bcryptCost int
}

// NewPasswordHasher returns a hasher that creates hashes with algo
func NewPasswordHasher(algo string) (*PasswordHasher, error) {
	switch algo {
	case "", HashBcrypt:
		return &PasswordHasher{algo: HashBcrypt, bcryptCost: bcrypt.DefaultCost}, nil
	case HashArgon2id:
		return &PasswordHasher{algo: HashArgon2id}, nil
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algo)
	}
}

// Hash returns an encoded hash of password
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algo == HashArgon2id {
		hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare checks password against hash in constant time. A mismatch is
// (false, nil); err is reserved for unusable hashes.
func (h *PasswordHasher) Compare(hash, password string) (bool, error) {
	if strings.HasPrefix(hash, argon2idPrefix) {
		match, _, err := argon2id.CheckHash(password, hash)
		if err != nil {
			return false, fmt.Errorf("failed to check argon2id hash: %w", err)
		}
		return match, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check bcrypt hash: %w", err)
	}
	return true, nil
}
