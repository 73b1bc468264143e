package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity is a verified user.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Verifier turns a handshake token into an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// JWTVerifier checks HS256 tokens against a shared secret, locally.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	if len(v.secret) == 0 {
		return Identity{}, fmt.Errorf("%w: no signing secret configured", ErrUnauthorized)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: invalid claims", ErrUnauthorized)
	}

	id := claimString(claims, "id")
	if id == "" {
		id = claimString(claims, "user_id")
	}
	if id == "" {
		id = claimString(claims, "sub")
	}
	if id == "" {
		return Identity{}, fmt.Errorf("%w: token has no user id", ErrUnauthorized)
	}

	return Identity{
		ID:       id,
		Username: claimString(claims, "username"),
		Email:    claimString(claims, "email"),
	}, nil
}

// Sign issues a token for id that Verify accepts. Used by tooling and tests;
// production tokens come from the account service.
func (v *JWTVerifier) Sign(id Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":       id.ID,
		"username": id.Username,
		"email":    id.Email,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// claimString accepts string and numeric claims; numeric user ids are common.
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}
