package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/invoicedesk/pkg/config"
	"github.com/angelmondragon/invoicedesk/pkg/enums"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "invoicedesk",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()

	token, err := MintSessionToken(cfg, now, SessionTokenPayload{
		SessionID: "sess-42",
		UserID:    7,
		Role:      enums.UserRoleSale,
	})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}

	if claims.SessionID() != "sess-42" {
		t.Fatalf("expected jti sess-42, got %q", claims.SessionID())
	}
	if claims.UserID != 7 {
		t.Fatalf("expected user_id 7, got %d", claims.UserID)
	}
	if claims.Role != enums.UserRoleSale {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(30 * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp, claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintSessionTokenGeneratesJTI(t *testing.T) {
	cfg := testJWTConfig(5)
	token, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{UserID: 1})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}
	if claims.SessionID() == "" {
		t.Fatal("expected generated jti")
	}
}

func TestParseSessionTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{SessionID: "s", UserID: 2, Role: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	if _, err := ParseSessionToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseSessionToken(other, token); err == nil {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestParseSessionTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	token, err := MintSessionToken(cfg, time.Now().Add(-time.Hour), SessionTokenPayload{SessionID: "s", UserID: 3})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	_, err = ParseSessionToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintSessionTokenInvalidRole(t *testing.T) {
	if _, err := MintSessionToken(testJWTConfig(5), time.Now(), SessionTokenPayload{UserID: 1, Role: "owner"}); err == nil {
		t.Fatal("expected invalid role error")
	}
}

func TestMintSessionTokenRequiresSecret(t *testing.T) {
	cfg := testJWTConfig(5)
	cfg.Secret = ""
	if _, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{UserID: 1}); err == nil {
		t.Fatal("expected missing secret error")
	}
}
