package identity

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of a GoTrue access token the client reads.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// parseClaims decodes an access token without verifying its signature.
// The signing secret belongs to the backend; the client only needs exp.
func parseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func expiryFromToken(token string) int64 {
	claims, err := parseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Unix()
}
