package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHMACRoundTrip(t *testing.T) {
	h, err := NewHMAC(Config{Secret: "s3cret", Issuer: "tutor", Audience: "web"})
	if err != nil {
		t.Fatalf("NewHMAC: %v", err)
	}
	tok, err := h.Issue("user-1", "a@b.c", "Ada")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rd, err := h.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if rd.UserID != "user-1" || rd.Email != "a@b.c" || rd.Name != "Ada" || rd.TokenString != tok {
		t.Fatalf("rd=%+v", rd)
	}
}

func TestHMACRejects(t *testing.T) {
	h, _ := NewHMAC(Config{Secret: "s3cret"})
	other, _ := NewHMAC(Config{Secret: "other"})
	foreign, _ := other.Issue("user-1", "", "")

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}).SignedString([]byte("s3cret"))

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}).SignedString([]byte("s3cret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "user-1",
	}}).SignedString([]byte("s3cret"))

	cases := map[string]string{
		"empty":      "",
		"garbage":    "not-a-jwt",
		"foreign":    foreign,
		"expired":    expired,
		"no subject": noSubject,
		"no expiry":  noExpiry,
	}
	for name, tok := range cases {
		if _, err := h.Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewHMACRequiresSecret(t *testing.T) {
	if _, err := NewHMAC(Config{}); err == nil {
		t.Fatalf("expected error")
	}
}
