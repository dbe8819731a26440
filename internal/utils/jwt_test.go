package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestNewAccessToken_RoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, map[string]any{"email": "a@x.com", "name": "Ann"}, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if tok.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if d := time.Until(tok.Exp); d < 59*time.Minute || d > time.Hour {
		t.Errorf("Exp %v is not about an hour away", tok.Exp)
	}

	id, err := ParseAccessToken(testSecret, tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if id.Email != "a@x.com" {
		t.Errorf("Email = %q, want a@x.com", id.Email)
	}
	if id.Claims["name"] != "Ann" {
		t.Errorf("name claim = %v, want Ann", id.Claims["name"])
	}
	if _, ok := id.Claims["jti"].(string); !ok {
		t.Error("expected jti claim")
	}
}

func TestNewAccessToken_OverridesClientExpiry(t *testing.T) {
	farFuture := time.Now().Add(24 * 365 * time.Hour).Unix()
	tok, err := NewAccessToken(testSecret, map[string]any{"email": "a@x.com", "exp": farFuture}, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	id, err := ParseAccessToken(testSecret, tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	exp, err := id.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("GetExpirationTime() = %v, %v", exp, err)
	}
	if exp.Unix() == farFuture {
		t.Error("client supplied exp must not survive signing")
	}
}

func TestParseAccessToken_Rejects(t *testing.T) {
	good, _ := NewAccessToken(testSecret, map[string]any{"email": "a@x.com"}, time.Hour)
	expired, _ := NewAccessToken(testSecret, map[string]any{"email": "a@x.com"}, -time.Minute)
	noEmail, _ := NewAccessToken(testSecret, map[string]any{"name": "Ann"}, time.Hour)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "a@x.com"}).SignedString([]byte(testSecret))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"email": "a@x.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "a@x.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{"empty", testSecret, ""},
		{"garbage", testSecret, "not.a.jwt"},
		{"wrong secret", "other-secret", good.Token},
		{"expired", testSecret, expired.Token},
		{"missing email", testSecret, noEmail.Token},
		{"missing exp", testSecret, noExp},
		{"unexpected hmac variant", testSecret, hs512},
		{"alg none", testSecret, none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.secret, tt.raw)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseAccessToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
