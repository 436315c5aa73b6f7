package domain

import "time"

type User struct {
	ID           string
	Email        string // lower-cased, unique
	FirstName    string
	LastName     string
	PasswordHash string // bcrypt; empty for users that only sign in through OIDC
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user can sign in with a password at all.
func (u User) HasPassword() bool { return u.PasswordHash != "" }
