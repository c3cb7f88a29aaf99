package devserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	errTokenInvalid = errors.New("token invalid")
	errTokenExpired = errors.New("token expired")
)

type claims struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
	Exp  int64  `json:"exp"`
}

// mintToken issues an HMAC-SHA256-signed JWT-shaped bearer token with the
// expiry embedded, so client-side expiry decoding sees real credentials.
func mintToken(email, name string, ttl time.Duration, secret []byte) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, _ := json.Marshal(claims{
		Sub:  email,
		Name: name,
		Exp:  time.Now().Add(ttl).Unix(),
	})
	body := header + "." + base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + sign(body, secret)
}

// verifyToken checks the signature and expiry and returns the claims.
func verifyToken(token string, secret []byte, now time.Time) (claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return claims{}, errTokenInvalid
	}
	body := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(sign(body, secret)), []byte(parts[2])) {
		return claims{}, errTokenInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return claims{}, errTokenInvalid
	}
	var c claims
	if err := json.Unmarshal(raw, &c); err != nil || c.Sub == "" {
		return claims{}, errTokenInvalid
	}
	if !now.Before(time.Unix(c.Exp, 0)) {
		return claims{}, errTokenExpired
	}
	return c, nil
}

func sign(body string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
