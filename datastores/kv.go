package datastores

import (
	"context"
	"errors"
)

// KV is a durable key-value storage holding text values.
type KV interface {
	// Get returns [ErrKeyNotFound] if nothing was set at key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

var ErrKeyNotFound = errors.New("store: key not found")
