package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/auth"
	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func newTestVerifier() *auth.JWTVerifier {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return auth.NewJWTVerifier(slog.New(handler), testSecret)
}

func signToken(t *testing.T, secret, subject, username string) string {
	t.Helper()
	claims := auth.Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}

func TestVerifyValidToken(t *testing.T) {
	v := newTestVerifier()

	ident, err := v.Verify(signToken(t, testSecret, "user-1", "alice"))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ident.UserID != "user-1" || ident.Username != "alice" {
		t.Errorf("Unexpected identity: %+v", ident)
	}
}

func TestVerifyUsernameFallsBackToSubject(t *testing.T) {
	v := newTestVerifier()

	ident, err := v.Verify(signToken(t, testSecret, "user-1", ""))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ident.Username != "user-1" {
		t.Errorf("Expected username fallback to subject, got %q", ident.Username)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := newTestVerifier()

	cases := map[string]string{
		"empty":           "",
		"garbage":         "not-a-jwt",
		"wrong secret":    signToken(t, "other-secret", "user-1", "alice"),
		"missing subject": signToken(t, testSecret, "", "alice"),
	}
	for name, token := range cases {
		if _, err := v.Verify(token); !errors.Is(err, chat.ErrUnauthenticated) {
			t.Errorf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := newTestVerifier()

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}

	if _, err := v.Verify(token); !errors.Is(err, chat.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for expired token, got %v", err)
	}
}
