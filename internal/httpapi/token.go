package httpapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims carried by an API bearer token. Subject is the uid.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for uid valid for ttl from now.
func IssueToken(secret []byte, uid string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	if uid == "" {
		return "", errors.New("uid is required")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken verifies tokenString and returns its subject.
func parseToken(secret []byte, tokenString string, now func() time.Time) (string, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !tok.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}
