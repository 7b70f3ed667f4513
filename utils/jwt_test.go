package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		wantErr   bool
	}{
		{"default algorithm", "s", "", false},
		{"HS256", "s", "HS256", false},
		{"lowercase HS384", "s", "hs384", false},
		{"HS512", "s", "HS512", false},
		{"RS256 unsupported", "s", "RS256", true},
		{"empty secret", "", "HS256", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService(tt.secret, tt.algorithm, time.Hour)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTokenService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenServiceDefaultTTL(t *testing.T) {
	s, err := NewTokenService("secret", "HS256", 0)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	if s.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", s.TTL(), DefaultTokenTTL)
	}

	_, expiresAt, err := s.Issue("alice", 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if d := time.Until(expiresAt); d < 23*time.Hour || d > 24*time.Hour {
		t.Errorf("expiry %v from now, want about 24h", d)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s, _ := NewTokenService("secret", "HS256", time.Hour)

	token, _, err := s.Issue("alice", 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	subject, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != "alice" {
		t.Errorf("Verify() subject = %q, want %q", subject, "alice")
	}
}

func TestVerifyRejects(t *testing.T) {
	s, _ := NewTokenService("secret", "HS256", time.Hour)
	other, _ := NewTokenService("other-secret", "HS256", time.Hour)
	hs512, _ := NewTokenService("secret", "HS512", time.Hour)

	valid, _, _ := s.Issue("alice", 0)
	forged, _, _ := other.Issue("alice", 0)
	wrongAlg, _, _ := hs512.Issue("alice", 0)

	// Issue treats a non-positive ttl as the default, so build an expired token by hand.
	expiredClaims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte("secret"))
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"other secret", forged},
		{"other algorithm", wrongAlg},
		{"expired", expired},
		{"missing expiry", noExpiry},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
