package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken(userID, "a@example.com", true, "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseToken(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("expected email a@example.com, got %s", claims.Email)
	}
	if !claims.IsAdmin {
		t.Error("expected admin flag to survive the round trip")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "a@example.com", false, "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token, "other-secret"); err == nil {
		t.Error("expected parse to fail with the wrong secret")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "a@example.com", false, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token, "secret"); err == nil {
		t.Error("expected parse to fail for an expired token")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", "secret"); err == nil {
		t.Error("expected parse to fail for malformed input")
	}
}

func TestDevProviderExchange(t *testing.T) {
	p := NewDevProvider()
	ctx := context.Background()

	profile, err := p.ExchangeCode(ctx, "dev:abc123:dev@example.com:Dev User")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if profile.ExternalID != "abc123" || profile.Email != "dev@example.com" || profile.Name != "Dev User" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if !profile.EmailVerified {
		t.Error("dev profiles must be verified")
	}

	for _, code := range []string{"", "dev:only-two:parts", "prod:a:b:c"} {
		if _, err := p.ExchangeCode(ctx, code); !errors.Is(err, ErrAuthFailed) {
			t.Errorf("code %q: expected ErrAuthFailed, got %v", code, err)
		}
	}
}
