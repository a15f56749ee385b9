// Package security holds password hashing, one-time codes, registration
// validation and session tokens.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashIterations = 100_000
	hashKeyLength  = 32
	SaltSize       = 16
)

// HashPassword derives a key from password and salt with PBKDF2-HMAC-SHA256.
func HashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLength, sha256.New)
}

func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// VerifyPassword reports whether password matches the stored base64 hash and
// salt.
func VerifyPassword(password, encodedHash, encodedSalt string) bool {
	hash, err := base64.StdEncoding.DecodeString(encodedHash)
	if err != nil || len(hash) == 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(HashPassword(password, salt), hash) == 1
}

// NewPasswordHash salts and hashes password, returning both base64 encoded.
func NewPasswordHash(password string) (hash, salt string, err error) {
	rawSalt, err := GenerateSalt()
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(HashPassword(password, rawSalt)),
		base64.StdEncoding.EncodeToString(rawSalt), nil
}
