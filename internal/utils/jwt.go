package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims is the payload of the admin session token.
type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateJWT signs an admin session token valid for ttl.
func GenerateJWT(secret, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateJWT parses and verifies an admin session token.
func ValidateJWT(secret, token string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
