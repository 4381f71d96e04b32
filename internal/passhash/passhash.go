// Package passhash wraps the bcrypt primitive behind a small Hasher type
// used by the registration and login flows. Hashing embeds a fresh random
// salt on every call, so two hashes of the same password differ while both
// remain verifiable.
package passhash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when no explicit cost is given.
const DefaultCost = 10

// Hasher produces and verifies salted one-way password hashes.
type Hasher struct {
	cost int
}

// New returns a Hasher with the given bcrypt cost.
// Costs outside the bcrypt-supported range are replaced with DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	return &Hasher{cost: cost}
}

// Hash returns the salted bcrypt hash of the given plaintext.
// An error means the primitive itself failed and nothing must be persisted.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf(
			"in internal/passhash/passhash.go/Hash(): error while `bcrypt.GenerateFromPassword()` calling: %w",
			err,
		)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext is the password that produced hashed.
// A mismatch is a normal `false` result; an error is returned only when
// hashed is not a well-formed bcrypt value. The underlying comparison is
// constant-time with respect to the stored hash.
func (h *Hasher) Verify(plaintext, hashed string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, fmt.Errorf(
		"in internal/passhash/passhash.go/Verify(): error while `bcrypt.CompareHashAndPassword()` calling: %w",
		err,
	)
}
