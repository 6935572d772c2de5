// Package favorite stores which listings each seeker has saved.
package favorite

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/record"
)

// Key is the storage key of the favorites collection.
const Key = "favorites"

// Favorite is a saved (user, property) pair. A pair is stored at most once.
type Favorite struct {
	UserID     int64     `json:"userId"`
	PropertyID int64     `json:"propertyId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Repository provides access to favorites.
type Repository struct {
	favs *kv.Collection[Favorite]
	now  record.Clock
}

// NewRepository creates a favorites repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{
		favs: kv.NewCollection[Favorite](store, Key),
		now:  record.Now,
	}
}

// Add saves the pair. It reports false when the pair was already saved.
func (r *Repository) Add(ctx context.Context, userID, propertyID int64) (bool, error) {
	added := false
	err := r.favs.Update(ctx, func(favs []Favorite) ([]Favorite, error) {
		if indexOf(favs, userID, propertyID) >= 0 {
			return nil, kv.ErrUnchanged
		}
		added = true
		return append(favs, Favorite{UserID: userID, PropertyID: propertyID, CreatedAt: r.now()}), nil
	})
	if err != nil {
		return false, fmt.Errorf("adding favorite: %w", err)
	}
	return added, nil
}

// Remove deletes the pair. It reports false when the pair was not saved.
func (r *Repository) Remove(ctx context.Context, userID, propertyID int64) (bool, error) {
	removed := false
	err := r.favs.Update(ctx, func(favs []Favorite) ([]Favorite, error) {
		i := indexOf(favs, userID, propertyID)
		if i < 0 {
			return nil, kv.ErrUnchanged
		}
		removed = true
		return slices.Delete(favs, i, i+1), nil
	})
	if err != nil {
		return false, fmt.Errorf("removing favorite: %w", err)
	}
	return removed, nil
}

// Toggle adds the pair when missing and removes it otherwise. It reports
// whether the listing is a favorite afterwards.
func (r *Repository) Toggle(ctx context.Context, userID, propertyID int64) (bool, error) {
	var now bool
	err := r.favs.Update(ctx, func(favs []Favorite) ([]Favorite, error) {
		if i := indexOf(favs, userID, propertyID); i >= 0 {
			now = false
			return slices.Delete(favs, i, i+1), nil
		}
		now = true
		return append(favs, Favorite{UserID: userID, PropertyID: propertyID, CreatedAt: r.now()}), nil
	})
	if err != nil {
		return false, fmt.Errorf("toggling favorite: %w", err)
	}
	return now, nil
}

// IsFavorite reports whether the user saved the listing.
func (r *Repository) IsFavorite(ctx context.Context, userID, propertyID int64) (bool, error) {
	favs, err := r.favs.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("loading favorites: %w", err)
	}
	return indexOf(favs, userID, propertyID) >= 0, nil
}

// ListByUser returns the listing ids a user saved, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]int64, error) {
	favs, err := r.favs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading favorites: %w", err)
	}
	ids := []int64{}
	for _, f := range favs {
		if f.UserID == userID {
			ids = append(ids, f.PropertyID)
		}
	}
	return ids, nil
}

// List returns every saved pair.
func (r *Repository) List(ctx context.Context) ([]Favorite, error) {
	favs, err := r.favs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading favorites: %w", err)
	}
	return favs, nil
}

// RemoveByUser deletes every favorite of a user.
func (r *Repository) RemoveByUser(ctx context.Context, userID int64) (int, error) {
	return r.removeWhere(ctx, func(f Favorite) bool { return f.UserID == userID })
}

// RemoveByProperty deletes every favorite of the given listings.
func (r *Repository) RemoveByProperty(ctx context.Context, propertyIDs ...int64) (int, error) {
	return r.removeWhere(ctx, func(f Favorite) bool { return slices.Contains(propertyIDs, f.PropertyID) })
}

func (r *Repository) removeWhere(ctx context.Context, match func(Favorite) bool) (int, error) {
	var removed int
	err := r.favs.Update(ctx, func(favs []Favorite) ([]Favorite, error) {
		kept := slices.DeleteFunc(favs, match)
		removed = len(favs) - len(kept)
		if removed == 0 {
			return nil, kv.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return 0, fmt.Errorf("removing favorites: %w", err)
	}
	return removed, nil
}

func indexOf(favs []Favorite, userID, propertyID int64) int {
	return slices.IndexFunc(favs, func(f Favorite) bool {
		return f.UserID == userID && f.PropertyID == propertyID
	})
}
