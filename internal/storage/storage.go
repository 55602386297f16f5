package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"commerce-storefront/internal/domain"
)

// Keys the client persists between runs.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyCart  = "cart"
)

// Storage is the client's persistent key/value area. Get returns
// domain.ErrNotFound for a missing key; Remove ignores missing keys.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// GetJSON decodes the value stored under key into out. The boolean is false
// when the key is absent.
func GetJSON(ctx context.Context, s Storage, key string, out interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v encoded as JSON under key.
func SetJSON(ctx context.Context, s Storage, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
