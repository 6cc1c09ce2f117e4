// Package localstore persists small pieces of client state (bearer token,
// current user, favorites, pending order marker) between runs.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Well-known keys.
const (
	KeyToken        = "auth_token"
	KeyCurrentUser  = "current_user"
	KeyFavorites    = "favorites"
	KeyPendingOrder = "pendingOrderId"
)

// Store is a string key/value store. Get reports ok=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON decodes the value stored at key into dst. ok is false when the key
// is missing.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
