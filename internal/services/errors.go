package services

import (
	"errors"

	"github.com/vaccert/vaccination-server/internal/slug"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown username or a
	// wrong password alike
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingCredential means no bearer token was presented
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential means the bearer token is malformed, badly signed or expired
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrNotFound means no record matched
	ErrNotFound = errors.New("record not found")

	// ErrPersistence wraps any unexpected store failure
	ErrPersistence = errors.New("persistence error")

	// ErrSlugExhausted means no free slug was found within the retry cap
	ErrSlugExhausted = slug.ErrExhausted
)
