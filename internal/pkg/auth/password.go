package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordMaxBytes is the longest input bcrypt hashes without truncation
const PasswordMaxBytes = 72

// BcryptCost is the hashing cost for new passwords. Tests lower it.
var BcryptCost = 12

// HashPassword hashes a plaintext password
func HashPassword(password string) (string, error) {
	if len(password) > PasswordMaxBytes {
		return "", fmt.Errorf("password longer than %d bytes", PasswordMaxBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash
// never matches.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
