package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie carrying the session token after OAuth login.
const SessionCookie = "registrar_session"

// IssueSessionToken mints a signed session token for a resolved principal.
func IssueSessionToken(secret string, principal Principal, ttl time.Duration) (string, error) {
	if !principal.Valid() {
		return "", fmt.Errorf("cannot issue session for empty principal")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  principal.Email,
		"name": principal.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})

	return token.SignedString([]byte(secret))
}

// ParseSessionToken validates a session token and recovers the principal.
// Invalid or expired tokens yield a zero principal, mirroring the header
// path: the caller is simply anonymous for this request.
func ParseSessionToken(secret, tokenString string) Principal {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Principal{}
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}
	}

	principal := Principal{}
	if sub, ok := claims["sub"].(string); ok {
		principal.Email = strings.ToLower(strings.TrimSpace(sub))
	}
	if name, ok := claims["name"].(string); ok {
		principal.Name = strings.TrimSpace(name)
	}

	if principal.Email == "" {
		return Principal{}
	}

	return principal
}
