package security

import (
	"bytes"
	"testing"
)

func TestHashPasswordIsDeterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a := HashPassword("Abcdef1!", salt)
	b := HashPassword("Abcdef1!", salt)
	if !bytes.Equal(a, b) {
		t.Fatalf("same password and salt must hash identically")
	}
	if len(a) != hashKeyLength {
		t.Fatalf("expected %d byte key, got %d", hashKeyLength, len(a))
	}
}

func TestHashPasswordDependsOnSalt(t *testing.T) {
	s1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("salt: %v", err)
	}
	s2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("salt: %v", err)
	}
	if len(s1) != SaltSize {
		t.Fatalf("expected %d byte salt, got %d", SaltSize, len(s1))
	}
	if bytes.Equal(HashPassword("Abcdef1!", s1), HashPassword("Abcdef1!", s2)) {
		t.Fatalf("different salts produced the same hash")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, salt, err := NewPasswordHash("Abcdef1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword("Abcdef1!", hash, salt) {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword("abcdef1!", hash, salt) {
		t.Fatalf("wrong password verified")
	}
	if VerifyPassword("Abcdef1!", "not base64!", salt) {
		t.Fatalf("garbage hash verified")
	}
}
