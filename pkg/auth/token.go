package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrNoExpiry       = errors.New("token has no exp claim")
)

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// DecodeClaims splits the token into its three segments and decodes only
// the payload. The header and signature are not inspected; the backend owns
// verification.
func DecodeClaims(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMissing
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrTokenMalformed
	}

	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	claims := &Claims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return claims, nil
}

// Validate decodes the token and checks that exp lies strictly after now.
func Validate(token string, now time.Time) (*Claims, error) {
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, ErrNoExpiry
	}
	if !claims.ExpiresAt.Time.After(now) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// Valid is the boolean form of Validate.
func Valid(token string, now time.Time) bool {
	_, err := Validate(token, now)
	return err == nil
}
