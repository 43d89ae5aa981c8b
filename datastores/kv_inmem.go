package datastores

import (
	"context"
	"sync"
)

// KVInmem implements [KV] in memory. The zero value is ready to use.
type KVInmem struct {
	m sync.Map
}

var _ KV = new(KVInmem)

func (s *KVInmem) Get(_ context.Context, key string) (string, error) {
	value, ok := s.m.Load(key)
	if !ok {
		return "", ErrKeyNotFound
	}
	return value.(string), nil //nolint: errcheck // only strings are stored
}

func (s *KVInmem) Set(_ context.Context, key, value string) error {
	s.m.Store(key, value)
	return nil
}
