package agora

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhchabran/agora/metrics"
	"github.com/rs/zerolog"
)

// Keys of the persisted tables.
const (
	votesKey     = "content_platform_votes"
	favoritesKey = "content_platform_favorites"
	hiddenKey    = "content_platform_hidden"
	reportedKey  = "content_platform_reported"
	commentsKey  = "content_platform_comments"
)

// A Backend is a string-keyed persistent map. Implementations only need to make a single
// Get or Set safe; the Store never relies on read-modify-write atomicity.
type Backend interface {
	// Get returns the value stored under key. ok is false if there is none.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error
}

// A KeyLister is a Backend able to enumerate its keys.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// A ListableBackend is a Backend that is also a KeyLister.
type ListableBackend interface {
	Backend
	KeyLister
}

// A Store keeps the interaction state of a single client on top of a Backend.
//
// Every operation is a read-modify-write on the backend that is not atomic: two callers
// mutating the same table concurrently race, and the last writer wins.
type Store struct {
	backend Backend
	logger  zerolog.Logger
	author  Author
}

// DefaultAuthor is the identity comments are attributed to when none is configured.
var DefaultAuthor = Author{ID: 1, Name: "current user"}

// NewStore returns a Store persisting into backend.
func NewStore(backend Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		author:  DefaultAuthor,
	}
}

// SetCurrentUser sets the author of the comments added through this store.
func (s *Store) SetCurrentUser(a Author) {
	s.author = a
}

// CurrentUser returns the author of the comments added through this store.
func (s *Store) CurrentUser() Author {
	return s.author
}

// loadJSON decodes the value stored under key into a T. Missing, empty or malformed
// payloads resolve to def, the latter being logged. Only a failing backend is an error,
// so that callers about to write back never mistake an unreadable value for an absent one.
func loadJSON[T any](ctx context.Context, s *Store, key string, def T) (T, error) {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		metrics.StateReadFailuresTotal.WithLabelValues("backend").Inc()
		return def, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return def, nil
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Malformed interaction state, using default")
		metrics.StateReadFailuresTotal.WithLabelValues("decode").Inc()
		return def, nil
	}

	return v, nil
}

// readJSON is loadJSON for queries: a failing backend is logged and def is returned.
func readJSON[T any](ctx context.Context, s *Store, key string, def T) T {
	v, err := loadJSON(ctx, s, key, def)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read interaction state, using default")
		return def
	}
	return v
}

// loadTable is loadJSON for tables, always returning a usable map.
func loadTable[V any](ctx context.Context, s *Store, key string) (map[string]V, error) {
	t, err := loadJSON[map[string]V](ctx, s, key, nil)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = map[string]V{}
	}
	return t, nil
}

// readTable is loadTable for queries, never failing.
func readTable[V any](ctx context.Context, s *Store, key string) map[string]V {
	t, err := loadTable[V](ctx, s, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read interaction state, using default")
		return map[string]V{}
	}
	return t
}

// writeJSON encodes v and stores it under key.
func writeJSON(ctx context.Context, s *Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := s.backend.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}
