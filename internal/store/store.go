// Package store provides typed, versioned access to the key/value store that
// holds dashboard state between requests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/logger"
)

// SchemaVersion is written into every stored envelope
const SchemaVersion = 1

var (
	// ErrAbsent is returned when a key is missing or its value can't be used
	ErrAbsent = errors.New("value absent")
	// ErrUnknownVersion is returned for envelopes written by a newer schema
	ErrUnknownVersion = errors.New("unknown schema version")
)

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Store wraps a db.KVStore with JSON envelopes and named scopes
type Store struct {
	kv db.KVStore
}

// New creates a store on top of kv
func New(kv db.KVStore) *Store {
	return &Store{kv: kv}
}

// Backend returns the underlying key/value store
func (s *Store) Backend() db.KVStore {
	return s.kv
}

// Encode wraps v in a versioned envelope
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return json.Marshal(envelope{Version: SchemaVersion, Data: data})
}

// Decode unwraps an envelope into v
func Decode(raw []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to parse envelope: %w", err)
	}
	if env.Version != SchemaVersion {
		return fmt.Errorf("%w: %d", ErrUnknownVersion, env.Version)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: empty envelope", ErrAbsent)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("failed to parse value: %w", err)
	}
	return nil
}

// Get reads key into v. ErrAbsent (wrapping the cause) is returned when the
// key is missing; parse and version failures are returned as they are.
func (s *Store) Get(ctx context.Context, key string, v any) error {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrAbsent, key)
		}
		return err
	}
	if err := Decode(raw, v); err != nil {
		return fmt.Errorf("key %s: %w", key, err)
	}
	return nil
}

// Load reads key into v and reports whether a usable value was found.
// Missing keys, parse failures and an unavailable backend all degrade to false.
func (s *Store) Load(ctx context.Context, key string, v any) bool {
	err := s.Get(ctx, key, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrAbsent):
		return false
	case errors.Is(err, db.ErrUnavailable):
		logger.Warning("store unavailable, reading %s as empty", key)
		return false
	default:
		logger.Warning("discarding unreadable value for %s: %v", key, err)
		return false
	}
}

// Put writes v under key
func (s *Store) Put(ctx context.Context, key string, v any) error {
	raw, err := Encode(v)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, raw)
}

// PutRaw writes already-encoded JSON under key without re-marshalling it
func (s *Store) PutRaw(ctx context.Context, key string, data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}
	raw, err := json.Marshal(envelope{Version: SchemaVersion, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return s.kv.Set(ctx, key, raw)
}

// Remove deletes keys
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	return s.kv.Delete(ctx, keys...)
}

// Clear deletes every key in scope and leaves everything else alone
func (s *Store) Clear(ctx context.Context, scope Scope) error {
	keys := scope.Keys()
	if len(keys) == 0 {
		return fmt.Errorf("unknown scope %q", scope)
	}

	if scope.includesHistory() {
		history, err := s.kv.Keys(ctx, ResourceHistoryPrefix)
		if err != nil {
			return fmt.Errorf("failed to list history keys: %w", err)
		}
		keys = append(keys, history...)
	}

	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear scope %s: %w", scope, err)
	}
	logger.Info("Cleared %d keys in scope %s", len(keys), scope)
	return nil
}
