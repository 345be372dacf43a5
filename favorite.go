package agora

import (
	"context"

	"github.com/jhchabran/agora/metrics"
)

// flagEntry is a presence flag persisted in the favorites and hidden tables.
type flagEntry struct {
	Type      ContentType `json:"type"`
	Timestamp int64       `json:"timestamp"`
}

// toggleFlag flips the presence of a record in a flag table and returns the new state.
func (s *Store) toggleFlag(ctx context.Context, table string, id int64, ct ContentType) (bool, error) {
	flags, err := loadTable[flagEntry](ctx, s, table)
	if err != nil {
		return false, err
	}
	key := recordKey(ct, id)

	_, present := flags[key]
	if present {
		delete(flags, key)
	} else {
		flags[key] = flagEntry{Type: ct, Timestamp: unixMilli(NowFunc())}
	}

	if err := writeJSON(ctx, s, table, flags); err != nil {
		return present, err
	}

	return !present, nil
}

func (s *Store) hasFlag(ctx context.Context, table string, id int64, ct ContentType) bool {
	_, ok := readTable[flagEntry](ctx, s, table)[recordKey(ct, id)]
	return ok
}

// ToggleFavorite adds a piece of content to the favorites, or removes it if it's already
// there. It returns true if the content is now favorited.
func (s *Store) ToggleFavorite(ctx context.Context, id int64, ct ContentType) (bool, error) {
	if !ct.Favoritable() {
		return false, unsupported("favorites", ct)
	}

	favorited, err := s.toggleFlag(ctx, favoritesKey, id, ct)
	if err != nil {
		return favorited, err
	}
	metrics.InteractionsTotal.WithLabelValues("favorite", string(ct)).Inc()

	return favorited, nil
}

// IsFavorited reports whether a piece of content is in the favorites.
func (s *Store) IsFavorited(ctx context.Context, id int64, ct ContentType) bool {
	if !ct.Favoritable() {
		return false
	}
	return s.hasFlag(ctx, favoritesKey, id, ct)
}
