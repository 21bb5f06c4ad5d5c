package fakesut

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword is returned when a user is configured without a password.
	ErrEmptyPassword = errors.New("password is required")

	// ErrInvalidEmail is returned when an email is empty.
	ErrInvalidEmail = errors.New("email is required")
)

// User is an account the server accepts.
type User struct {
	Email        string
	PasswordHash string
}

// NewUser creates a user with a bcrypt-hashed password.
func NewUser(email, password string) (*User, error) {
	u := &User{Email: normalizeEmail(email)}
	if u.Email == "" {
		return nil, ErrInvalidEmail
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
