// Package invitecode generates collision-resistant invitation codes.
package invitecode

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/Achess01/ComparteRide-platzi/internal/apperrors"
)

const (
	// DefaultLength is the code length used when none is configured.
	DefaultLength = 10
	// DefaultMaxAttempts bounds collision retries before giving up.
	DefaultMaxAttempts = 10

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// ErrCodeSpaceExhausted indicates every generated candidate collided
// within the retry budget.
var ErrCodeSpaceExhausted = apperrors.New(apperrors.CodeCodeSpaceExhausted, "invitation code space exhausted")

// ExistsFunc answers whether a code is already taken in the durable
// store. It is an optimization only; the store's unique index remains
// the source of truth under concurrency.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces fixed-length random alphanumeric codes.
type Generator struct {
	// Length of generated codes; DefaultLength when zero.
	Length int
	// MaxAttempts bounds collision retries; DefaultMaxAttempts when zero.
	MaxAttempts int
}

// Generate returns a code that the lookup did not report as taken,
// retrying on collision up to the attempt budget.
func (g Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	length := g.Length
	if length <= 0 {
		length = DefaultLength
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	for i := 0; i < attempts; i++ {
		code, err := randomCode(length)
		if err != nil {
			return "", fmt.Errorf("generate invitation code: %w", err)
		}
		if exists == nil {
			return code, nil
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check invitation code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// maxUnbiased is the largest byte value usable without modulo bias:
// the highest multiple of len(alphabet) that fits in a byte.
const maxUnbiased = byte(256 / len(alphabet) * len(alphabet))

func randomCode(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		// Rejection sampling: discard bytes at or above the cutoff so
		// every alphabet character is equally likely.
		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
