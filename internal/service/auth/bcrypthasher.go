package auth

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// Default PasswordHasher of AuthService
//
// Password is reduced to its sha256 digest first: bcrypt reads at most 72 bytes,
// so long passwords differing only after that would otherwise collide
type BcryptHasher struct{}

// Hash password with fresh random salt and bcrypt.DefaultCost (10 rounds)
// Hashing the same password twice gives different digests
func (h BcryptHasher) Hash(password string) (string, error) {
	digest := sha256.Sum256([]byte(password))
	hashed, err := bcrypt.GenerateFromPassword(digest[:], bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare password with digest made by Hash in constant time
// Empty or malformed digest is never a match
func (h BcryptHasher) Verify(hashedPassword string, password string) bool {
	digest := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), digest[:]) == nil
}
