package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrTokenMalformed is returned when the credential cannot be decoded.
	ErrTokenMalformed = errors.New("credential malformed")
	// ErrTokenExpired is returned when the embedded expiry has passed.
	ErrTokenExpired = errors.New("credential expired")
)

// TokenExpiry reads the expiry embedded in a JWT-shaped bearer token. Only
// the payload is decoded; signature verification is the server's job, the
// client just needs to know when the credential stops being usable.
func TokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, ErrTokenMalformed
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, ErrTokenMalformed
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return time.Time{}, ErrTokenMalformed
	}
	return time.Unix(claims.Exp, 0), nil
}

// ValidateToken checks that a credential decodes and has not expired at now.
func ValidateToken(token string, now time.Time) error {
	expiry, err := TokenExpiry(token)
	if err != nil {
		return err
	}
	if !now.Before(expiry) {
		return ErrTokenExpired
	}
	return nil
}
