package testutil

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Secret is the HS256 key tests share with devapi.NewSharedSecretAuth.
const Secret = "leadboard-test-secret"

// SignToken returns an HS256 JWT for userID valid for ttl.
func SignToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// TestToken signs a one hour token for userID with TEST_JWT_SECRET.
func TestToken(userID string) (string, error) {
	secret := os.Getenv("TEST_JWT_SECRET")
	if secret == "" {
		return "", errors.New("TEST_JWT_SECRET must be set")
	}
	return SignToken(secret, userID, time.Hour)
}

// MustToken signs a token with Secret and panics on failure.
func MustToken(userID string) string {
	tok, err := SignToken(Secret, userID, time.Hour)
	if err != nil {
		panic(err)
	}
	return tok
}
