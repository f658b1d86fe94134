package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signBackendToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestPeekClaimsReadsRoleAndExpiry(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	token := signBackendToken(t, jwt.MapClaims{
		"sub":      "A1",
		"role":     "admin",
		"sub_role": "executive",
		"exp":      exp.Unix(),
	})

	got, err := PeekClaims(token)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got.Subject != "A1" || got.Role != "admin" || got.SubRole != "executive" {
		t.Fatalf("unexpected claims %+v", got)
	}
	if !got.Expires.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, got.Expires)
	}
}

func TestPeekClaimsWithoutExpiry(t *testing.T) {
	token := signBackendToken(t, jwt.MapClaims{"sub": "A1", "role": "investor"})
	got, err := PeekClaims(token)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if !got.Expires.IsZero() {
		t.Fatalf("expected zero expiry, got %v", got.Expires)
	}
}

func TestPeekClaimsRejectsGarbage(t *testing.T) {
	if _, err := PeekClaims("not-a-jwt"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}
