package devapi

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestBearerTokenSuccess(t *testing.T) {
	token, err := bearerToken("  Bearer header.payload.signature ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", token)
	}
}

func TestBearerTokenErrors(t *testing.T) {
	cases := map[string]struct {
		header string
		want   error
	}{
		"empty":         {"", errMissingAuthorization},
		"blank":         {"   ", errMissingAuthorization},
		"no scheme":     {"header.payload.signature", errBadAuthorization},
		"basic":         {"Basic dXNlcjpwYXNz", errBadAuthorization},
		"prefix only":   {"Bearer ", errBadAuthorization},
		"two segments":  {"Bearer a.b", errBadAuthorization},
		"many periods":  {"Bearer " + strings.Repeat(".", 1000), errBadAuthorization},
		"lowercase tag": {"bearer a.b.c", errBadAuthorization},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := bearerToken(tc.header); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUserIDFromBearerHS256(t *testing.T) {
	secret := []byte("test-secret")
	signed := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://aud",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
		"iat": time.Now().Add(-time.Minute).Unix(),
	})

	auth := NewSharedSecretAuth(secret)
	auth.Audience = "api://aud"
	auth.Issuer = "https://issuer/"

	userID, err := auth.UserIDFromAuthHeader("Bearer " + signed)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestUserIDFromBearerRejects(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewSharedSecretAuth(secret)
	auth.Audience = "api://aud"

	cases := map[string]string{
		"wrong secret": signHS256(t, []byte("other"), jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired":      signHS256(t, secret, jwt.MapClaims{"sub": "u", "aud": "api://aud", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no exp":       signHS256(t, secret, jwt.MapClaims{"sub": "u", "aud": "api://aud"}),
		"bad audience": signHS256(t, secret, jwt.MapClaims{"sub": "u", "aud": "other", "exp": time.Now().Add(time.Hour).Unix()}),
		"missing sub":  signHS256(t, secret, jwt.MapClaims{"aud": "api://aud", "exp": time.Now().Add(time.Hour).Unix()}),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := auth.UserIDFromBearer(tok); err == nil {
				t.Fatalf("expected token to be rejected")
			}
		})
	}
}

func TestNewAuthFromEnv(t *testing.T) {
	t.Run("local hs256", func(t *testing.T) {
		t.Setenv(envLocalAuthMode, "HS256")
		t.Setenv(envLocalAuthSecret, "s3cret")
		a, err := NewAuthFromEnv(nil, "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !a.TestMode || string(a.TestSecret) != "s3cret" {
			t.Fatalf("expected shared secret mode, got %+v", a)
		}
	})
	t.Run("local mode without secret", func(t *testing.T) {
		t.Setenv(envLocalAuthMode, "hs256")
		t.Setenv(envLocalAuthSecret, "")
		if _, err := NewAuthFromEnv(nil, "", ""); err == nil {
			t.Fatalf("expected error for missing secret")
		}
	})
	t.Run("unsupported mode", func(t *testing.T) {
		t.Setenv(envLocalAuthMode, "rs512")
		if _, err := NewAuthFromEnv(nil, "", ""); err == nil {
			t.Fatalf("expected error for unsupported mode")
		}
	})
	t.Run("jwks cache ttl", func(t *testing.T) {
		t.Setenv(envLocalAuthMode, "")
		t.Setenv(envTestMode, "")
		t.Setenv(envJWKSCacheTTL, "2m")
		a, err := NewAuthFromEnv(nil, "aud", "iss")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.TestMode || a.keyCacheTTL != 2*time.Minute {
			t.Fatalf("unexpected auth config: testMode=%v ttl=%v", a.TestMode, a.keyCacheTTL)
		}
	})
	t.Run("bad jwks cache ttl", func(t *testing.T) {
		t.Setenv(envLocalAuthMode, "")
		t.Setenv(envTestMode, "")
		t.Setenv(envJWKSCacheTTL, "-1s")
		if _, err := NewAuthFromEnv(nil, "", ""); err == nil {
			t.Fatalf("expected error for negative ttl")
		}
	})
}

func TestKeyForTokenWithoutJWKS(t *testing.T) {
	a := NewAuth(nil, "", "")
	if _, err := a.keyForToken(&jwt.Token{Header: map[string]any{"kid": "k1"}}); err == nil {
		t.Fatalf("expected error when jwks is not configured")
	}
}
