package tokenstore

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenExpiry decodes the JWT payload without verifying the signature and returns its exp claim.
// The token's authenticity comes from the TLS call that issued it; this is expiry inspection only.
func TokenExpiry(rawToken string) (time.Time, bool) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, false
	}
	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsTokenValid reports whether rawToken is JWT-shaped with an exp in the future.
// Malformed tokens are invalid, never an error.
func IsTokenValid(rawToken string) bool {
	return IsTokenValidAt(rawToken, time.Now())
}

// IsTokenValidAt is IsTokenValid against the given clock reading.
func IsTokenValidAt(rawToken string, now time.Time) bool {
	exp, ok := TokenExpiry(rawToken)
	if !ok {
		return false
	}
	return exp.After(now)
}
