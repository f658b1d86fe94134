package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of the backend access token the gateway reads.
type TokenClaims struct {
	Subject string
	Role    string
	SubRole string
	Expires time.Time
}

type backendClaims struct {
	Role    string `json:"role"`
	SubRole string `json:"sub_role"`
	jwt.RegisteredClaims
}

// PeekClaims decodes the backend JWT without verifying its signature. The
// gateway is not the token authority and holds no signing key; the backend
// re-validates the token on every proxied call. The claims are used only to
// cap the local session lifetime and label the session row.
func PeekClaims(token string) (TokenClaims, error) {
	var claims backendClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, err
	}
	out := TokenClaims{Role: claims.Role, SubRole: claims.SubRole, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.Expires = claims.ExpiresAt.Time
	}
	return out, nil
}
