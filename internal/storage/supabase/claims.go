package supabase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the subset of the GoTrue access token we read. The token
// is verified by the server; the client only inspects it.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func parseAccessToken(token string) (*accessClaims, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// tokenExpiry falls back to the token's exp claim when the response carried
// no expiry.
func tokenExpiry(token string, expiresAt, expiresIn int64, now time.Time) time.Time {
	switch {
	case expiresAt > 0:
		return time.Unix(expiresAt, 0)
	case expiresIn > 0:
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	if claims, err := parseAccessToken(token); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Time{}
}
