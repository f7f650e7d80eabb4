package security

import (
	"testing"
	"time"

	"webagency/api/internal/models"
)

func testUser() models.User {
	return models.User{
		ID:    "user-1",
		Email: "dev@example.com",
		Role:  models.RoleAdmin,
	}
}

func TestIssueAndParseToken(t *testing.T) {
	token, expiresAt, err := IssueToken("secret-a", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if until := time.Until(expiresAt); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	claims, err := ParseToken(token, "secret-a")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "dev@example.com" || claims.Role != models.RoleAdmin {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestIssueTokenUnique(t *testing.T) {
	// claims timestamps have second precision; back-to-back issuance within
	// the same second must still yield distinct tokens
	first, _, err := IssueToken("secret-a", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, _, err := IssueToken("secret-a", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first == second {
		t.Fatalf("two issued tokens must never be identical")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _, err := IssueToken("secret-a", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(token, "secret-b"); err == nil {
		t.Fatalf("expected signature verification to fail")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, _, err := IssueToken("secret-a", testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(token, "secret-a"); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", "secret-a"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}
