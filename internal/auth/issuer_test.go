package auth

import (
	"testing"
	"time"

	"voice-gateway/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func testTwilioConfig() config.TwilioConfig {
	return config.TwilioConfig{
		AccountSID:   "AC123",
		APIKeySID:    "SK456",
		APIKeySecret: "topsecret",
		TwiMLAppSID:  "AP789",
	}
}

func TestIssueRoundTrip(t *testing.T) {
	iss, err := NewIssuer(testTwilioConfig(), time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	iss.now = func() time.Time { return time.Unix(1700000000, 0) }

	tok, err := iss.Issue("user123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tok.Identity != "user123" {
		t.Fatalf("unexpected identity: %q", tok.Identity)
	}

	claims, err := iss.Decode(tok.Token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}
	if claims.Issuer != "SK456" {
		t.Fatalf("expected iss=api key sid, got %q", claims.Issuer)
	}
	if claims.Subject != "AC123" {
		t.Fatalf("expected sub=account sid, got %q", claims.Subject)
	}
	if claims.ID != "SK456-1700000000" {
		t.Fatalf("unexpected jti: %q", claims.ID)
	}
	if claims.Grants.Identity != "user123" {
		t.Fatalf("unexpected grant identity: %q", claims.Grants.Identity)
	}
	if claims.Grants.Voice.Outgoing.ApplicationSID != "AP789" {
		t.Fatalf("voice grant not scoped to app: %+v", claims.Grants.Voice)
	}
	if !claims.Grants.Voice.Incoming.Allow {
		t.Fatalf("expected incoming connections allowed")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %v", got)
	}
}

func TestIssueSetsContentType(t *testing.T) {
	iss, err := NewIssuer(testTwilioConfig(), time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	tok, err := iss.Issue("alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(tok.Token, &Claims{})
	if err != nil {
		t.Fatalf("expected parseable token, got %v", err)
	}
	if cty, _ := parsed.Header["cty"].(string); cty != "twilio-fpa;v=1" {
		t.Fatalf("unexpected cty header: %q", cty)
	}
	if alg, _ := parsed.Header["alg"].(string); alg != "HS256" {
		t.Fatalf("unexpected alg: %q", alg)
	}
}

func TestIssueRequiresIdentity(t *testing.T) {
	iss, err := NewIssuer(testTwilioConfig(), time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := iss.Issue(""); err != ErrMissingIdentity {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
}

func TestNewIssuerRequiresCredentials(t *testing.T) {
	cfg := testTwilioConfig()
	cfg.APIKeySecret = ""
	if _, err := NewIssuer(cfg, time.Hour); err != ErrIncompleteConfig {
		t.Fatalf("expected ErrIncompleteConfig, got %v", err)
	}
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	iss, _ := NewIssuer(testTwilioConfig(), time.Hour)
	tok, err := iss.Issue("bob")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	other := testTwilioConfig()
	other.APIKeySecret = "differentsecret"
	verifier, _ := NewIssuer(other, time.Hour)
	if _, err := verifier.Decode(tok.Token); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}
