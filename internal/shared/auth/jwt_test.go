package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	token, err := SignJWT(Claims{Sub: "user-1", Email: "a@example.com"}, "secret")
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, raw, err := VerifyJWT(token, "secret")
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "user-1" {
		t.Fatalf("expected sub user-1, got %q", claims.Sub)
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw claims payload")
	}

	p := FromClaims(claims, token, raw)
	if p.Role != RoleAuthenticated || p.Elevated() {
		t.Fatalf("expected authenticated caller, got %+v", p)
	}
	if p.ClaimsJSON() != string(raw) {
		t.Fatalf("expected claims json to match token payload")
	}
}

func TestVerifyRejectsWrongSecretAndExpired(t *testing.T) {
	token, err := SignJWT(Claims{Sub: "user-1"}, "secret")
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, _, err := VerifyJWT(token, "other"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	expired, err := SignJWT(Claims{Sub: "user-1", Exp: time.Now().Add(-time.Minute).Unix()}, "secret")
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, _, err := VerifyJWT(expired, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
	if _, _, err := VerifyJWT(token, ""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestTokenCannotClaimServiceRole(t *testing.T) {
	p := FromClaims(Claims{Sub: "user-1", Role: RoleService}, "tok", nil)
	if p.Elevated() {
		t.Fatalf("caller token must not yield an elevated principal")
	}
	if !Service().Elevated() {
		t.Fatalf("service principal must be elevated")
	}
	if !(Principal{}).Anonymous() {
		t.Fatalf("empty principal must be anonymous")
	}
}
