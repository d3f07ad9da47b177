package auth

import (
	"encoding/json"
	"strings"
)

const (
	RoleAuthenticated = "authenticated"
	RoleService       = "service_role"
)

// Principal is the acting identity for a data-access call. It is passed
// explicitly through every layer; nothing stores it globally.
type Principal struct {
	UserID string
	Role   string
	Token  string
	Claims json.RawMessage
}

// FromClaims builds a caller principal from verified token claims.
func FromClaims(claims Claims, token string, raw json.RawMessage) Principal {
	role := strings.TrimSpace(claims.Role)
	if role == "" || role == RoleService {
		role = RoleAuthenticated
	}
	return Principal{
		UserID: claims.Sub,
		Role:   role,
		Token:  token,
		Claims: raw,
	}
}

// Service returns the elevated server-side principal. It bypasses row-level
// policies and must never be built from request input.
func Service() Principal {
	return Principal{Role: RoleService}
}

// Elevated reports whether p bypasses row-level policies.
func (p Principal) Elevated() bool {
	return p.Role == RoleService
}

// Anonymous reports whether p carries no identity.
func (p Principal) Anonymous() bool {
	return !p.Elevated() && strings.TrimSpace(p.UserID) == ""
}

// ClaimsJSON returns the claims document exposed to row-level policies.
func (p Principal) ClaimsJSON() string {
	if len(p.Claims) > 0 {
		return string(p.Claims)
	}
	payload, err := json.Marshal(map[string]string{"sub": p.UserID, "role": p.Role})
	if err != nil {
		return "{}"
	}
	return string(payload)
}
