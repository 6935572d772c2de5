// Package history keeps each seeker's recently viewed listings.
package history

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/evcraddock/rental-bridge/internal/kv"
)

const keyPrefix = "viewed_"

// MaxEntries caps the length of a viewing history.
const MaxEntries = 20

// Key returns the storage key of a user's history.
func Key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

// Repository provides access to viewing histories.
type Repository struct {
	store kv.Store
}

// NewRepository creates a history repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) list(userID int64) *kv.Collection[int64] {
	return kv.NewCollection[int64](r.store, Key(userID))
}

// Record puts propertyID at the front of the user's history, removing an
// earlier entry for it and dropping the oldest beyond MaxEntries.
func (r *Repository) Record(ctx context.Context, userID, propertyID int64) error {
	err := r.list(userID).Update(ctx, func(ids []int64) ([]int64, error) {
		if len(ids) > 0 && ids[0] == propertyID {
			return nil, kv.ErrUnchanged
		}
		ids = slices.DeleteFunc(ids, func(id int64) bool { return id == propertyID })
		ids = slices.Insert(ids, 0, propertyID)
		if len(ids) > MaxEntries {
			ids = ids[:MaxEntries]
		}
		return ids, nil
	})
	if err != nil {
		return fmt.Errorf("recording view: %w", err)
	}
	return nil
}

// List returns the user's history, most recent first.
func (r *Repository) List(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := r.list(userID).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return ids, nil
}

// Clear forgets the user's history.
func (r *Repository) Clear(ctx context.Context, userID int64) error {
	if err := r.list(userID).Clear(ctx); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// Remove drops the given listings from every user's history.
func (r *Repository) Remove(ctx context.Context, propertyIDs ...int64) error {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("listing histories: %w", err)
	}

	for _, key := range keys {
		userID, ok := parseKey(key)
		if !ok {
			continue
		}
		err := r.list(userID).Update(ctx, func(ids []int64) ([]int64, error) {
			kept := slices.DeleteFunc(slices.Clone(ids), func(id int64) bool {
				return slices.Contains(propertyIDs, id)
			})
			if len(kept) == len(ids) {
				return nil, kv.ErrUnchanged
			}
			return kept, nil
		})
		if err != nil {
			return fmt.Errorf("pruning %s: %w", key, err)
		}
	}
	return nil
}

func parseKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil
}
