package session

import (
	"encoding/json"
	"strings"

	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/pkg/auth"
)

// extractor recognizes one auth response shape.
type extractor func(resp backend.AuthResponse) (string, *backend.User, bool)

// extractors are tried in order; the first that yields a token and a user wins.
var extractors = []extractor{
	fieldPair("token"),
	fieldPair("access_token"),
	fieldPair("accessToken"),
	dataEnvelope,
	tokenClaims,
}

// ExtractAuth pulls the bearer token and user out of a login or register
// response.
func ExtractAuth(resp backend.AuthResponse) (string, *backend.User, bool) {
	if resp == nil {
		return "", nil, false
	}
	for _, extract := range extractors {
		if token, user, ok := extract(resp); ok {
			return token, user, true
		}
	}
	return "", nil, false
}

func fieldPair(tokenField string) extractor {
	return func(resp backend.AuthResponse) (string, *backend.User, bool) {
		token := stringField(resp, tokenField)
		if token == "" {
			return "", nil, false
		}
		user, ok := userField(resp["user"])
		if !ok {
			return "", nil, false
		}
		return token, user, true
	}
}

func dataEnvelope(resp backend.AuthResponse) (string, *backend.User, bool) {
	data, ok := resp["data"].(map[string]any)
	if !ok {
		return "", nil, false
	}
	return fieldPair("token")(backend.AuthResponse(data))
}

// tokenClaims covers token-only responses; the identity comes from the
// token's own claims.
func tokenClaims(resp backend.AuthResponse) (string, *backend.User, bool) {
	var token string
	for _, field := range []string{"token", "access_token", "accessToken"} {
		if token = stringField(resp, field); token != "" {
			break
		}
	}
	if token == "" {
		return "", nil, false
	}
	claims, err := auth.DecodeClaims(token)
	if err != nil {
		return "", nil, false
	}
	return token, &backend.User{
		ID:       claims.SubjectID(),
		Username: claims.DisplayName(),
		Email:    claims.Email,
		Role:     claims.Role,
	}, true
}

func stringField(resp backend.AuthResponse, field string) string {
	s, _ := resp[field].(string)
	return strings.TrimSpace(s)
}

func userField(raw any) (*backend.User, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	var user backend.User
	if err := json.Unmarshal(b, &user); err != nil {
		return nil, false
	}
	return &user, true
}
