package auth

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a storefront bearer token. Only exp is
// required; the identity fields vary between backend versions.
type Claims struct {
	UserID   json.RawMessage `json:"id,omitempty"`
	AltID    json.RawMessage `json:"userId,omitempty"`
	Username string          `json:"username,omitempty"`
	Name     string          `json:"name,omitempty"`
	User     string          `json:"user,omitempty"`
	Email    string          `json:"email,omitempty"`
	Role     string          `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the first identifier present among sub, id and userId.
func (c *Claims) SubjectID() string {
	if c == nil {
		return ""
	}
	if sub := strings.TrimSpace(c.Subject); sub != "" {
		return sub
	}
	if id := rawID(c.UserID); id != "" {
		return id
	}
	return rawID(c.AltID)
}

// DisplayName returns the first non-empty name claim.
func (c *Claims) DisplayName() string {
	if c == nil {
		return ""
	}
	for _, candidate := range []string{c.Username, c.Name, c.User} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}

// ids may arrive as strings or numbers
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}
