// Package slug generates the short public identifiers under which patient
// records are published.
package slug

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"regexp"
)

const (
	// Prefix starts every slug
	Prefix = "E-"
	// Alphabet holds the symbols drawn for the random part
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length is the number of random symbols after the prefix
	Length = 5

	// DefaultMaxAttempts bounds how many taken candidates Generate tolerates
	DefaultMaxAttempts = 32
)

// largest multiple of len(Alphabet) that fits in a byte; higher bytes are
// rejected so every symbol is equally likely
const sampleCeiling = 256 - 256%len(Alphabet)

// ErrExhausted is returned when every attempted candidate was already taken
var ErrExhausted = errors.New("slug space exhausted")

var pattern = regexp.MustCompile(`^E-[A-Z0-9]{5}$`)

// Valid reports whether s has the shape of a generated slug
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Checker answers whether a slug is already in use
type Checker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Generator produces slugs that are unused at the moment they are returned.
// Nothing is reserved, so the caller must persist the slug and rely on the
// store's unique constraint for concurrent creators.
type Generator struct {
	checker     Checker
	random      io.Reader
	maxAttempts int
}

// Option customises a Generator
type Option func(*Generator)

// WithRandom replaces crypto/rand as the source of randomness
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// WithMaxAttempts changes the retry cap
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// NewGenerator creates a generator backed by checker
func NewGenerator(checker Checker, opts ...Option) *Generator {
	g := &Generator{
		checker:     checker,
		random:      rand.Reader,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the first candidate the checker reports as unused
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate, err := g.Candidate()
		if err != nil {
			return "", err
		}

		taken, err := g.checker.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// Candidate draws a random slug without consulting the store
func (g *Generator) Candidate() (string, error) {
	out := make([]byte, 0, len(Prefix)+Length)
	out = append(out, Prefix...)

	buf := make([]byte, Length*2)
	for len(out) < len(Prefix)+Length {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= sampleCeiling {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == len(Prefix)+Length {
				break
			}
		}
	}
	return string(out), nil
}
