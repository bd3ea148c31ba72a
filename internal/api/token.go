package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway is how close to expiry an access token may be before the
// client refreshes it proactively.
const expiryLeeway = 30 * time.Second

// tokenExpired reports whether a JWT access token is expired or about to
// expire. The signature is not verified; the server remains the authority
// and an optimistic request still gets a 401 if the claim lied. Tokens
// that do not parse or carry no exp claim are treated as live.
func tokenExpired(raw string, leeway time.Duration) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return time.Now().Add(leeway).After(exp.Time)
}
