// Package redisstore provides an agora.Backend on top of Redis, letting several server
// instances share interaction state.
package redisstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/rueidis"
	"github.com/rs/zerolog"
)

// DefaultPrefix namespaces the keys written by agora.
const DefaultPrefix = "agora:"

// A Store keeps every entry as a plain Redis string under a common prefix.
type Store struct {
	client rueidis.Client
	prefix string
	logger zerolog.Logger
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Open connects to the Redis server described by opts.
func Open(opts Options, logger zerolog.Logger) (*Store, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Username:    opts.Username,
		Password:    opts.Password,
		SelectDB:    opts.DB,
		ClientName:  "agora",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client for %s: %w", opts.Addr, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return New(client, prefix, logger), nil
}

// New returns a Store using an existing client.
func New(client rueidis.Client, prefix string, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "redisstore").Logger(),
	}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return v, true, nil
}

// Set stores value under key, without expiration.
func (s *Store) Set(ctx context.Context, key string, value string) error {
	err := s.client.Do(ctx, s.client.B().Set().Key(s.prefix+key).Value(value).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("size", len(value)).Msg("Stored state")
	return nil
}

// Keys returns every key starting with prefix, without the store prefix. Keys are
// collected with SCAN and come in no particular order, each of them once.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(s.prefix+prefix) + "*"
	seen := map[string]struct{}{}
	keys := []string{}
	var cursor uint64
	for {
		entry, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(match).Count(100).Build()).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = collectKeys(keys, seen, entry.Elements, s.prefix+prefix, s.prefix)

		cursor = entry.Cursor
		if cursor == 0 {
			return keys, nil
		}
	}
}

// collectKeys appends to keys the elements starting with match that aren't in seen yet,
// trimmed of the store prefix. SCAN may return a key more than once.
func collectKeys(keys []string, seen map[string]struct{}, elements []string, match string, prefix string) []string {
	for _, k := range elements {
		if !strings.HasPrefix(k, match) {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys
}

// escapeGlob escapes the characters MATCH patterns give a meaning to.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	s.client.Close()
	return nil
}
