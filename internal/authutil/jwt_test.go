package authutil

import "testing"

func TestIssueAndValidateToken(t *testing.T) {
	token, err := IssueToken("alice@10.0.0.1")
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	userID, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if userID != "alice@10.0.0.1" {
		t.Fatalf("expected alice@10.0.0.1, got %s", userID)
	}
}

func TestValidateTokenRejectsInvalid(t *testing.T) {
	if _, err := ValidateToken(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
	token, err := IssueToken("bob@10.0.0.2")
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if _, err := ValidateToken(token + "x"); err == nil {
		t.Fatalf("expected error for tampered token")
	}
}
