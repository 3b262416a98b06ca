// ABOUTME: Password hashing and verification using bcrypt
// ABOUTME: Hashes are stored on the user record and never serialized outward

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost factor (10-14 recommended for production)
const bcryptCost = 12

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 8

// ErrWrongPassword is returned when a password does not match the stored hash
var ErrWrongPassword = errors.New("wrong password")

// HashPassword derives a bcrypt hash for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against a stored hash.
// Returns ErrWrongPassword on mismatch.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrWrongPassword
	}
	if err != nil {
		return fmt.Errorf("comparing password: %w", err)
	}
	return nil
}
