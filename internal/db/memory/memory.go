// Package memory provides an in-process key/value store with an optional byte quota.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/AI2HU/satlens/internal/db"
)

// Store implements db.KVStore in memory
type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	maxBytes int64
	down     bool

	// FailSet, when set, is consulted before every write and its error returned
	FailSet func(key string, value []byte) error
}

// New creates an empty store. maxBytes <= 0 means unlimited.
func New(maxBytes int64) *Store {
	return &Store{data: make(map[string][]byte), maxBytes: maxBytes}
}

// Connect is a no-op
func (s *Store) Connect(ctx context.Context) error { return nil }

// Disconnect is a no-op
func (s *Store) Disconnect(ctx context.Context) error { return nil }

// SetAvailable toggles whether the store behaves as reachable
func (s *Store) SetAvailable(ok bool) {
	s.mu.Lock()
	s.down = !ok
	s.mu.Unlock()
}

// Ping reports ErrUnavailable when the store was marked down
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return db.ErrUnavailable
	}
	return nil
}

// Get returns a copy of the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, db.ErrUnavailable
	}

	v, ok := s.data[key]
	if !ok {
		return nil, db.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return db.ErrUnavailable
	}
	if s.FailSet != nil {
		if err := s.FailSet(key, value); err != nil {
			return err
		}
	}

	if s.maxBytes > 0 {
		var others int64
		for k, v := range s.data {
			if k != key {
				others += int64(len(v))
			}
		}
		if others+int64(len(value)) > s.maxBytes {
			return db.NewQuotaError(fmt.Errorf("%d bytes for %s exceeds quota of %d", len(value), key, s.maxBytes))
		}
	}

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes keys
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return db.ErrUnavailable
	}
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Keys lists keys with the given prefix, sorted
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, db.ErrUnavailable
	}

	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Size returns the number of value bytes stored
func (s *Store) Size(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return 0, db.ErrUnavailable
	}

	var total int64
	for _, v := range s.data {
		total += int64(len(v))
	}
	return total, nil
}
