package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

var jwtSecret []byte

var ErrInvalidToken = errors.New("invalid token")

// InitJWT sets the signing secret. Without it no tokens are issued or accepted.
func InitJWT(secret string) {
	jwtSecret = []byte(secret)
}

// JWTEnabled reports whether a secret has been configured.
func JWTEnabled() bool {
	return len(jwtSecret) > 0
}

func GenerateJWT(identity string) (string, error) {
	if !JWTEnabled() {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": identity,
		"exp": now.Add(tokenTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseJWT validates the token and returns the identity it was issued for.
func ParseJWT(tokenString string) (string, error) {
	if !JWTEnabled() {
		return "", ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	}, jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	identity, err := token.Claims.GetSubject()
	if err != nil || identity == "" {
		return "", ErrInvalidToken
	}
	return identity, nil
}
