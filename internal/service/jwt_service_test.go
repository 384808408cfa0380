package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTService_IssueParseAccess(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute)

	token, err := svc.IssueAccessToken("u1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Subject != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTService_RejectsEmptySecretOrUser(t *testing.T) {
	if _, err := NewJWTService("", time.Minute).IssueAccessToken("u1"); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for empty secret, got %v", err)
	}
	if _, err := NewJWTService("secret", time.Minute).IssueAccessToken("  "); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for empty user, got %v", err)
	}
}

func TestJWTService_Expired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }

	token, err := svc.IssueAccessToken("u1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	svc.now = func() time.Time { return time.Now().UTC() }
	if _, err := svc.ParseAccessToken(token); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Minute).IssueAccessToken("u1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := NewJWTService("secret-b", time.Minute).ParseAccessToken(token); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTService_RejectsForeignIssuerAndType(t *testing.T) {
	now := time.Now().UTC()
	sign := func(c Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	base := jwt.RegisteredClaims{Subject: "u1", IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}

	foreign := base
	foreign.Issuer = "other"
	refresh := base
	refresh.Issuer = "pathfinder-llm"

	svc := NewJWTService("secret", time.Minute)
	if _, err := svc.ParseAccessToken(sign(Claims{UserID: "u1", TokenType: "access", RegisteredClaims: foreign})); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected foreign issuer rejected, got %v", err)
	}
	if _, err := svc.ParseAccessToken(sign(Claims{UserID: "u1", TokenType: "refresh", RegisteredClaims: refresh})); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected refresh token rejected, got %v", err)
	}
}
