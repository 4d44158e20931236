// internal/app/system/authutil/password.go
// Package authutil provides password hashing and validation shared by the
// identity endpoints and the folder and share-link password gates.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password validation constants
const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
	BcryptCost        = 12

	// MaxGatePasswordLength caps folder and share-link passwords at
	// bcrypt's input limit.
	MaxGatePasswordLength = 72
)

// Password validation errors
var (
	ErrPasswordTooShort    = errors.New("Password must be at least 6 characters.")
	ErrPasswordTooLong     = errors.New("Password must be less than 128 characters.")
	ErrPasswordCommon      = errors.New("This password is too common. Please choose a different one.")
	ErrGatePasswordTooLong = errors.New("Password must be at most 72 characters.")
)

// commonPasswords is a list of very common passwords that are blocked.
var commonPasswords = map[string]bool{
	"123456":    true,
	"1234567":   true,
	"12345678":  true,
	"123456789": true,
	"password":  true,
	"password1": true,
	"qwerty":    true,
	"qwerty123": true,
	"abc123":    true,
	"111111":    true,
	"123123":    true,
	"654321":    true,
	"iloveyou":  true,
	"letmein":   true,
	"welcome":   true,
	"dragon":    true,
	"monkey":    true,
	"sunshine":  true,
}

// ValidatePassword checks if a password meets the requirements.
// Returns nil if valid, or an error describing the issue.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// ValidateGatePassword checks a folder or share-link password. Gate
// secrets are not account credentials: any non-empty value passes, so
// there is no minimum length or common-password blocklist, only the
// bcrypt length cap.
func ValidateGatePassword(password string) error {
	if len(password) > MaxGatePasswordLength {
		return ErrGatePasswordTooLong
	}
	return nil
}

// HashPassword hashes a password using bcrypt.
// The password should be validated with ValidatePassword first.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain-text password with a bcrypt hash.
// Returns true if the password matches, false otherwise.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
