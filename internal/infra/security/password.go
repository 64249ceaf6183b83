package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt hashing with a configurable work factor.
// bcrypt folds a fresh random salt into every digest, so hashing the same
// password twice never yields equal values.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher validates the cost and constructs a hasher. A zero cost
// selects bcrypt.DefaultCost; values outside the bcrypt range are rejected so
// a misconfigured (too weak) work factor fails at startup instead of silently
// degrading every stored credential.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash generates a salted bcrypt digest for the provided password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify compares the password against a stored digest. Malformed digests
// report false rather than an error; the caller only ever learns match or
// no match.
func (h *PasswordHasher) Verify(password, digest string) bool {
	if password == "" || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
