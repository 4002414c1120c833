package auth

import (
	"fmt"
	"log/slog"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated principal the coordinator consumes. How the
// token was issued is not this package's concern.
type Identity struct {
	UserID   string
	Username string
}

// Verifier turns a credential proof into an identity or fails with
// chat.ErrUnauthenticated.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Claims is the expected JWT claim set: a required subject plus an optional
// display name.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed tokens.
type JWTVerifier struct {
	secret []byte
	logger *slog.Logger
}

var _ Verifier = (*JWTVerifier)(nil)

func NewJWTVerifier(logger *slog.Logger, secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		logger: logger.With(slog.String("component", "auth_verifier")),
	}
}

func (v *JWTVerifier) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, fmt.Errorf("%w: missing token", chat.ErrUnauthenticated)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		v.logger.Debug("Token validation failed", slog.Any("error", err))
		return Identity{}, fmt.Errorf("%w: invalid token", chat.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token missing subject", chat.ErrUnauthenticated)
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	return Identity{UserID: claims.Subject, Username: username}, nil
}
