// Package otp issues and verifies the six-digit login codes sent by email.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// TTL is how long an issued code stays valid.
const TTL = 5 * time.Minute

// Store keeps at most one live code per email. Verify consumes the code on a
// match and leaves it in place on a mismatch.
type Store interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	Verify(ctx context.Context, email, code string) (bool, error)
}

var codeSpace = big.NewInt(1_000_000)

// Generate returns a uniformly random zero-padded six-digit code.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func codesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
