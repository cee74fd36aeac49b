package auth

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		SecretKey:     "test-secret-key",
		TokenDuration: time.Hour,
		Issuer:        "jobboard-test",
	}
}

func TestVerifier_GenerateAndVerify(t *testing.T) {
	verifier := NewVerifier(testConfig())

	token, err := verifier.GenerateToken("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	id, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.UserID != "user-123" {
		t.Errorf("expected user ID %q, got %q", "user-123", id.UserID)
	}
	if id.Email != "user@example.com" {
		t.Errorf("expected email %q, got %q", "user@example.com", id.Email)
	}
}

func TestVerifier_InvalidTokens(t *testing.T) {
	verifier := NewVerifier(testConfig())

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not-a-jwt"},
		{"garbage segments", "aaa.bbb.ccc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			if err != ErrInvalidToken {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestVerifier_WrongSecret(t *testing.T) {
	issuer := NewVerifier(testConfig())
	token, err := issuer.GenerateToken("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	other := NewVerifier(Config{
		SecretKey:     "a-different-secret",
		TokenDuration: time.Hour,
		Issuer:        "jobboard-test",
	})
	if _, err := other.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifier_ExpiredToken(t *testing.T) {
	config := testConfig()
	config.TokenDuration = time.Millisecond
	verifier := NewVerifier(config)

	token, err := verifier.GenerateToken("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := verifier.Verify(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifier_MissingUserID(t *testing.T) {
	verifier := NewVerifier(testConfig())

	token, err := verifier.GenerateToken("", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := verifier.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for empty user ID, got %v", err)
	}
}
