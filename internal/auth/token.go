package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload carried by actor tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// TokenIssuer signs and verifies HS256 actor tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. A non-positive ttl defaults to 24h.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the user.
func (t *TokenIssuer) Issue(user *User) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("auth: signing secret not configured")
	}
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role: user.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the actor it names.
func (t *TokenIssuer) Verify(tokenString string) (Actor, error) {
	if len(t.secret) == 0 || tokenString == "" {
		return Actor{}, ErrInvalidToken
	}
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Actor{}, ErrInvalidToken
	}
	return Actor{ID: claims.Subject, Role: claims.Role}, nil
}
