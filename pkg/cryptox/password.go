package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used by HashPassword.
const DefaultCost = 12

// MaxPasswordLength is the bcrypt input limit in bytes.
const MaxPasswordLength = 72

var (
	ErrPasswordTooLong = errors.New("cryptox: password exceeds 72 bytes")
	ErrPasswordInvalid = errors.New("cryptox: password does not match")
)

// cost is a var so tests can drop it to bcrypt.MinCost.
var cost = DefaultCost

// SetCost overrides the work factor. Values outside bcrypt's range are ignored.
func SetCost(c int) {
	if c < bcrypt.MinCost || c > bcrypt.MaxCost {
		return
	}
	cost = c
}

// HashPassword returns a bcrypt hash of password (salt and cost embedded).
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
// Returns ErrPasswordInvalid on mismatch, other errors for corrupt hashes.
func VerifyPassword(password, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordInvalid
	}
	return err
}

// dummyHash is compared against when a user does not exist so that
// login latency does not reveal whether the account is real.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

// BurnCompare performs a throwaway bcrypt comparison.
func BurnCompare(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
