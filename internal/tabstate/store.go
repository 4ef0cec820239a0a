// Package tabstate remembers per-screen UI selections across visits.
//
// Each screen has a typed record and a default value. Loading decodes the
// stored JSON on top of the defaults, so missing fields keep their default and
// unknown stored fields are ignored. There is no schema versioning.
package tabstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by a Backend when nothing is stored under a key
var ErrNotFound = errors.New("tab state not found")

// ErrInvalidKey is returned for keys outside [A-Za-z0-9_-]
var ErrInvalidKey = errors.New("invalid tab state key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Backend is raw key/value persistence
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store is a Backend bound to one client scope
type Store struct {
	backend Backend
	scope   string
}

// New creates a store with no client scope
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Scoped returns a store whose keys are prefixed with the client ID
func (s *Store) Scoped(clientID string) (*Store, error) {
	if !keyPattern.MatchString(clientID) {
		return nil, fmt.Errorf("%w: client %q", ErrInvalidKey, clientID)
	}
	return &Store{backend: s.backend, scope: clientID}, nil
}

func (s *Store) fullKey(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if s.scope == "" {
		return key, nil
	}
	return s.scope + ":" + key, nil
}

// LoadRaw returns the stored bytes for key
func (s *Store) LoadRaw(ctx context.Context, key string) ([]byte, error) {
	full, err := s.fullKey(key)
	if err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, full)
}

// SaveRaw stores already-encoded JSON for key
func (s *Store) SaveRaw(ctx context.Context, key string, data []byte) error {
	full, err := s.fullKey(key)
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("saving %s: payload is not valid JSON", key)
	}
	return s.backend.Set(ctx, full, data)
}

// Clear removes whatever is stored for key
func (s *Store) Clear(ctx context.Context, key string) error {
	full, err := s.fullKey(key)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, full); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clearing %s: %w", key, err)
	}
	return nil
}

// Load returns the stored state for key merged over defaults. Missing,
// unreadable or malformed state yields defaults; the failure is only logged.
func Load[T any](ctx context.Context, s *Store, key string, defaults T) T {
	data, err := s.LoadRaw(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logrus.WithError(err).WithField("key", key).Warn("Failed to load tab state, using defaults")
		}
		return defaults
	}

	merged, err := clone(defaults)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Tab state defaults are not encodable")
		return defaults
	}
	if err := json.Unmarshal(data, &merged); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Stored tab state is malformed, using defaults")
		return defaults
	}
	return merged
}

// Save encodes state as JSON and stores it under key
func Save[T any](ctx context.Context, s *Store, key string, state T) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.SaveRaw(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// clone deep-copies v through JSON so decoding never writes into maps or
// slices shared with the caller's defaults.
func clone[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
