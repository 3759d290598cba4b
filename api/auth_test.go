package api

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signedHS256Token(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func testAuth(secret []byte) *Auth {
	return &Auth{
		OwnerClaim: defaultOwnerClaim,
		TestMode:   true,
		TestSecret: secret,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

func TestBearerTokenFromHeaderSuccess(t *testing.T) {
	token, err := bearerTokenFromHeader("Bearer header.payload.signature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", token)
	}
}

func TestBearerTokenFromHeaderMissing(t *testing.T) {
	if _, err := bearerTokenFromHeader(""); err == nil || err.Error() != "missing authorization header" {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestBearerTokenFromHeaderWrongScheme(t *testing.T) {
	if _, err := bearerTokenFromHeader("Basic abc.def.ghi"); err == nil || err.Error() != "bad auth header" {
		t.Fatalf("expected bad auth header error, got %v", err)
	}
}

func TestBearerTokenFromHeaderManyPeriods(t *testing.T) {
	header := "Bearer " + strings.Repeat(".", 1000)
	if _, err := bearerTokenFromHeader(header); err == nil || err.Error() != "bad auth header" {
		t.Fatalf("expected bad auth header error, got %v", err)
	}
}

func TestUserIDFromAuthHeaderHS256(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedHS256Token(t, secret, jwt.MapClaims{
		"cognito:username": "bob@builder.com",
		"exp":              time.Now().Add(5 * time.Minute).Unix(),
		"nbf":              time.Now().Add(-time.Minute).Unix(),
		"iat":              time.Now().Add(-time.Minute).Unix(),
	})

	owner, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if owner != "bob@builder.com" {
		t.Fatalf("unexpected owner: %s", owner)
	}
}

func TestUserIDFromAuthHeaderExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedHS256Token(t, secret, jwt.MapClaims{
		"cognito:username": "bob@builder.com",
		"exp":              time.Now().Add(-5 * time.Minute).Unix(),
	})

	if _, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestUserIDFromAuthHeaderMissingClaim(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedHS256Token(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	if _, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed); err == nil || err.Error() != "missing username claim" {
		t.Fatalf("expected missing claim error, got %v", err)
	}
}

func TestUserIDFromAuthHeaderWrongSecret(t *testing.T) {
	signed := signedHS256Token(t, []byte("other-secret"), jwt.MapClaims{
		"cognito:username": "bob@builder.com",
		"exp":              time.Now().Add(5 * time.Minute).Unix(),
	})

	if _, err := testAuth([]byte("test-secret")).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestNewAuthReadsOwnerClaimFromEnv(t *testing.T) {
	t.Setenv(envLocalAuthMode, "hs256")
	t.Setenv(envLocalAuthSecret, "test-secret")
	t.Setenv(envOwnerClaim, "email")

	auth := NewAuth(nil, "", "")
	if !auth.TestMode {
		t.Fatal("expected test mode to be enabled")
	}
	if auth.OwnerClaim != "email" {
		t.Fatalf("unexpected owner claim: %s", auth.OwnerClaim)
	}

	signed := signedHS256Token(t, []byte("test-secret"), jwt.MapClaims{
		"email": "jane@doe.com",
		"exp":   time.Now().Add(5 * time.Minute).Unix(),
	})
	owner, err := auth.UserIDFromAuthHeader("Bearer " + signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != "jane@doe.com" {
		t.Fatalf("unexpected owner: %s", owner)
	}
}
