package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "Sup3r$ecret" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !VerifyPassword("Sup3r$ecret", hash) {
		t.Fatalf("correct password should verify")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Fatalf("wrong password should not verify")
	}
}

func TestHashPasswordRandomSalt(t *testing.T) {
	first, err := HashPassword("Sup3r$ecret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("Sup3r$ecret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("two hashes of the same password should differ")
	}
}

func TestHashPasswordCostFallback(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", -1)
	if err != nil {
		t.Fatalf("hash with invalid cost: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != DefaultBcryptCost {
		t.Fatalf("expected fallback cost %d, got %d", DefaultBcryptCost, cost)
	}
}
