package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Password limits. bcrypt only reads the first 72 bytes, so longer input is
// refused rather than silently truncated.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
	DefaultCost       = 10
)

var ErrPasswordLength = errors.New("password length out of range")

// ValidatePassword checks the length limits. The minimum counts characters,
// the maximum counts bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength || len(password) > MaxPasswordBytes {
		return ErrPasswordLength
	}
	return nil
}

func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, DefaultCost)
}

func HashPasswordCost(password string, cost int) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash
// never matches.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
