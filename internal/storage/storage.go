package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"donaprenda/internal/cache"
	"donaprenda/internal/recipes"
)

const (
	FavoritesKey = "gaucho_favorites"
	HistoryKey   = "gaucho_history"
)

// Load decodes key into a T. A missing key or a corrupt document both give
// the zero value; corruption is logged but never returned so startup always
// succeeds.
func Load[T any](ctx context.Context, c cache.Cache, key string) T {
	var zero T
	rc, err := c.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to read stored value", "key", key, "error", err)
		}
		return zero
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close stored value", "key", key, "error", err)
		}
	}()

	var v T
	if err := json.NewDecoder(rc).Decode(&v); err != nil {
		slog.ErrorContext(ctx, "failed to parse stored value, starting empty", "key", key, "error", err)
		return zero
	}
	return v
}

// Save overwrites key with v encoded as JSON.
func Save(ctx context.Context, c cache.Cache, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.Put(ctx, key, string(b)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Clear removes key entirely, which is not the same as saving an empty list.
func Clear(ctx context.Context, c cache.Cache, key string) error {
	if err := c.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}

// Store binds the two slots the app keeps: favorite recipes and the history
// of finished conversations.
type Store struct {
	cache cache.Cache
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c}
}

func (s *Store) LoadFavorites(ctx context.Context) []recipes.Recipe {
	return Load[[]recipes.Recipe](ctx, s.cache, FavoritesKey)
}

func (s *Store) SaveFavorites(ctx context.Context, favorites []recipes.Recipe) error {
	return Save(ctx, s.cache, FavoritesKey, nonNil(favorites))
}

func (s *Store) LoadHistory(ctx context.Context) [][]recipes.Message {
	return Load[[][]recipes.Message](ctx, s.cache, HistoryKey)
}

func (s *Store) SaveHistory(ctx context.Context, history [][]recipes.Message) error {
	return Save(ctx, s.cache, HistoryKey, nonNil(history))
}

func (s *Store) ClearHistory(ctx context.Context) error {
	return Clear(ctx, s.cache, HistoryKey)
}

// HasHistory reports whether a history document is stored at all.
func (s *Store) HasHistory(ctx context.Context) (bool, error) {
	return s.cache.Exists(ctx, HistoryKey)
}

// nonNil keeps empty collections as [] rather than null on disk.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
