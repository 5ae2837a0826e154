package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("security: password longer than 72 bytes")

// AdminPasswordHasher hashes back-office passwords with bcrypt. Hashes made
// with a lower cost than the configured one are reported by NeedsRehash so
// a successful login can upgrade them.
type AdminPasswordHasher struct {
	Cost int
}

func (h AdminPasswordHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h AdminPasswordHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (h AdminPasswordHasher) NeedsRehash(hash string) bool {
	current, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return current < h.cost()
}

func (h AdminPasswordHasher) cost() int {
	if h.Cost < bcrypt.MinCost || h.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return h.Cost
}
