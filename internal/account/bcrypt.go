package account

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the work factor the service has always used.
const DefaultBcryptCost = 10

// BcryptHasher implements CredentialHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Out-of-range costs fall
// back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost reports the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("account: hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether candidate matches hash. A mismatch is not an error.
func (h *BcryptHasher) Verify(hash, candidate string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("account: verify password: %w", err)
	}
}

var _ CredentialHasher = (*BcryptHasher)(nil)
