package utils

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is used when no cost is configured.
const DefaultHashCost = 10

// GenerateID returns a random (v4) UUID string.
func GenerateID() string {
	return uuid.NewString()
}

// HashPassword hashes a password using bcrypt. Each call uses a fresh salt.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultHashCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
