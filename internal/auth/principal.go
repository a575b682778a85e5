// Package auth resolves the caller identity for a single request, either
// from the platform-injected client principal header or from the session
// token minted after an OAuth login.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// HeaderClientPrincipal is the header the hosting platform injects in front
// of the application.
const HeaderClientPrincipal = "X-MS-CLIENT-PRINCIPAL"

// Principal is the resolved identity for the current request.
type Principal struct {
	Email string
	Name  string
}

// Valid reports whether the principal carries a usable email claim.
func (p Principal) Valid() bool {
	return p.Email != ""
}

type clientPrincipal struct {
	Claims []claim `json:"claims"`
}

type claim struct {
	Type  string `json:"typ"`
	Value string `json:"val"`
}

// DecodeClientPrincipal parses the base64 JSON principal payload. A missing
// or malformed payload yields a zero principal; it never errors, so a broken
// header behaves exactly like an absent one.
func DecodeClientPrincipal(header string) Principal {
	header = strings.TrimSpace(header)
	if header == "" {
		return Principal{}
	}

	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return Principal{}
	}

	var payload clientPrincipal
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Principal{}
	}

	var principal Principal
	for _, c := range payload.Claims {
		switch c.Type {
		case "preferred_username":
			principal.Email = strings.ToLower(strings.TrimSpace(c.Value))
		case "name":
			principal.Name = strings.TrimSpace(c.Value)
		}
	}

	if principal.Email == "" {
		return Principal{}
	}

	return principal
}
