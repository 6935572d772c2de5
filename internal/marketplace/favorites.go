package marketplace

import (
	"context"
	"slices"

	"github.com/evcraddock/rental-bridge/internal/notify"
	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// RecommendLimit is the number of recommendations returned for a limit of
// zero.
const RecommendLimit = 6

// ToggleFavorite saves or unsaves a listing for the current seeker and
// reports whether it is now saved.
func (s *Service) ToggleFavorite(ctx context.Context, propertyID int64) (bool, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleSeeker)
	if err != nil {
		return false, err
	}
	if _, err := s.props.FindByID(ctx, propertyID); err != nil {
		return false, err
	}

	saved, err := s.favorites.Toggle(ctx, sess.ID, propertyID)
	if err != nil {
		return false, err
	}

	msg := "Removed from favorites"
	if saved {
		msg = "Added to favorites"
	}
	s.notifier.Notify(ctx, notify.LevelSuccess, msg)
	return saved, nil
}

// IsFavorite reports whether the current seeker saved a listing. It is
// false for anyone else.
func (s *Service) IsFavorite(ctx context.Context, propertyID int64) (bool, error) {
	sess, err := s.auth.CurrentUser(ctx)
	if err != nil || sess == nil || sess.Role != user.RoleSeeker {
		return false, err
	}
	return s.favorites.IsFavorite(ctx, sess.ID, propertyID)
}

// Favorites returns the current seeker's saved listings in the order they
// were saved.
func (s *Service) Favorites(ctx context.Context) ([]*property.Property, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleSeeker)
	if err != nil {
		return nil, err
	}
	ids, err := s.favorites.ListByUser(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return s.props.Compare(ctx, ids)
}

// Viewed returns the current seeker's recently viewed listings, most recent
// first.
func (s *Service) Viewed(ctx context.Context) ([]*property.Property, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleSeeker)
	if err != nil {
		return nil, err
	}
	ids, err := s.history.List(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return s.props.Compare(ctx, ids)
}

// ClearViewed empties the current seeker's history.
func (s *Service) ClearViewed(ctx context.Context) error {
	sess, err := s.auth.RequireRole(ctx, user.RoleSeeker)
	if err != nil {
		return err
	}
	if err := s.history.Clear(ctx, sess.ID); err != nil {
		return err
	}
	s.notifier.Notify(ctx, notify.LevelInfo, "History cleared")
	return nil
}

// Recommendations suggests active listings similar to the ones the current
// seeker viewed or saved.
func (s *Service) Recommendations(ctx context.Context, limit int) ([]*property.Property, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleSeeker)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = RecommendLimit
	}

	viewed, err := s.history.List(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	saved, err := s.favorites.ListByUser(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	interacted := slices.Clone(viewed)
	for _, id := range saved {
		if !slices.Contains(interacted, id) {
			interacted = append(interacted, id)
		}
	}

	active, err := s.props.FindWhere(ctx, func(p *property.Property) bool {
		return p.Status == property.StatusActive
	})
	if err != nil {
		return nil, err
	}
	return property.Recommend(active, interacted, limit), nil
}
