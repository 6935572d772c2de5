package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/notify"
	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// ListProperties returns listings matching f ordered by key. Admins see
// every listing and owners see all of their own; everyone else only sees
// active listings.
func (s *Service) ListProperties(ctx context.Context, f property.Filter, key property.SortKey) ([]*property.Property, error) {
	sess, err := s.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	if !canSeeAll(sess, f) {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, property.StatusActive) {
			return []*property.Property{}, nil
		}
		f.Statuses = []property.Status{property.StatusActive}
	}

	props, err := s.props.List(ctx)
	if err != nil {
		return nil, err
	}
	return property.Apply(props, f, key), nil
}

func canSeeAll(sess *user.Session, f property.Filter) bool {
	switch {
	case sess == nil:
		return false
	case sess.Role == user.RoleAdmin:
		return true
	case sess.Role == user.RoleOwner:
		return f.OwnerID == sess.ID
	}
	return false
}

// FeaturedProperties returns up to limit active featured listings.
func (s *Service) FeaturedProperties(ctx context.Context, limit int) ([]*property.Property, error) {
	return s.props.Featured(ctx, limit)
}

// CompareProperties returns the visible listings among ids, in order.
func (s *Service) CompareProperties(ctx context.Context, ids []int64) ([]*property.Property, error) {
	sess, err := s.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	props, err := s.props.Compare(ctx, ids)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(props, func(p *property.Property) bool { return !visible(sess, p) }), nil
}

func visible(sess *user.Session, p *property.Property) bool {
	if p.Status == property.StatusActive {
		return true
	}
	return sess != nil && (sess.Role == user.RoleAdmin || sess.ID == p.OwnerID)
}

// GetProperty returns a listing and counts the view. Views by the listing's
// owner are not counted; views by a seeker are added to their history.
func (s *Service) GetProperty(ctx context.Context, id int64) (*property.Property, error) {
	sess, err := s.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(sess, p) {
		return nil, apperr.NotFound("property", id)
	}
	if sess != nil && sess.ID == p.OwnerID {
		return p, nil
	}

	p, err = s.props.IncrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess != nil && sess.Role == user.RoleSeeker {
		if err := s.history.Record(ctx, sess.ID, id); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// CreateProperty submits a listing for the current owner. It stays pending
// until an admin approves it.
func (s *Service) CreateProperty(ctx context.Context, in property.Input) (*property.Property, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleOwner)
	if err != nil {
		return nil, err
	}

	owner := property.Owner{ID: sess.ID, Name: sess.Name, Email: sess.Email, Phone: sess.Phone}
	p, err := s.props.Create(ctx, owner, in)
	if err != nil {
		return nil, err
	}

	slog.Info("property created", "property_id", p.ID, "owner_id", sess.ID)
	s.notifier.Notify(ctx, notify.LevelSuccess, "Property submitted for approval")
	return p, nil
}

// UpdateProperty changes the listing details of one of the current owner's
// listings. Status and featured changes go through SetPropertyStatus and
// ToggleFeatured.
func (s *Service) UpdateProperty(ctx context.Context, id int64, patch property.Patch) (*property.Property, error) {
	if patch.Status != nil || patch.Featured != nil {
		return nil, fmt.Errorf("changing status or featured through update: %w", apperr.ErrAccessDenied)
	}

	if _, err := s.ownListing(ctx, id); err != nil {
		return nil, err
	}

	p, err := s.props.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	slog.Info("property updated", "property_id", id)
	s.notifier.Notify(ctx, notify.LevelSuccess, "Property updated successfully")
	return p, nil
}

// ownListing returns listing id when the current session is an owner and
// owns it.
func (s *Service) ownListing(ctx context.Context, id int64) (*property.Property, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleOwner)
	if err != nil {
		return nil, err
	}
	p, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != sess.ID {
		return nil, fmt.Errorf("property %d belongs to another owner: %w", id, apperr.ErrAccessDenied)
	}
	return p, nil
}

// DeleteProperty removes a listing along with its inquiries, favorites and
// history entries. Owners may delete their own listings, admins any.
func (s *Service) DeleteProperty(ctx context.Context, id int64) error {
	sess, err := s.auth.RequireRole(ctx, user.RoleOwner, user.RoleAdmin)
	if err != nil {
		return err
	}
	if sess.Role == user.RoleOwner {
		if _, err := s.ownListing(ctx, id); err != nil {
			return err
		}
	}

	if err := s.props.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.removeListingRecords(ctx, id); err != nil {
		return err
	}

	slog.Info("property deleted", "property_id", id, "by", sess.ID)
	s.notifier.Notify(ctx, notify.LevelSuccess, "Property deleted successfully")
	return nil
}

func (s *Service) removeListingRecords(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.inquiries.DeleteByProperty(ctx, ids...); err != nil {
		return err
	}
	if _, err := s.favorites.RemoveByProperty(ctx, ids...); err != nil {
		return err
	}
	return s.history.Remove(ctx, ids...)
}

// ownerStatuses are the statuses an owner may put their own listing in.
var ownerStatuses = []property.Status{property.StatusActive, property.StatusInactive, property.StatusRented}

// SetPropertyStatus moves a listing to status. Admins may set any status.
// Owners may move their own moderated listings between active, inactive
// and rented, but cannot take a listing out of pending.
func (s *Service) SetPropertyStatus(ctx context.Context, id int64, status property.Status) (*property.Property, error) {
	st, ok := property.ParseStatus(string(status))
	if !ok {
		v := apperr.Violations{}
		v.Add("status", "must be pending, active, inactive or rented")
		return nil, v.Err()
	}

	sess, err := s.auth.RequireRole(ctx, user.RoleOwner, user.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if sess.Role == user.RoleOwner {
		p, err := s.ownListing(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.Status == property.StatusPending || !slices.Contains(ownerStatuses, st) {
			return nil, fmt.Errorf("moving property %d from %s to %s: %w", id, p.Status, st, apperr.ErrAccessDenied)
		}
	}

	p, err := s.props.SetStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}

	slog.Info("property status changed", "property_id", id, "status", p.Status, "by", sess.ID)
	s.notifier.Notify(ctx, notify.LevelSuccess, "Property "+string(p.Status))
	return p, nil
}

// TogglePropertyStatus flips one of the current owner's listings between
// active and inactive.
func (s *Service) TogglePropertyStatus(ctx context.Context, id int64) (*property.Property, error) {
	if _, err := s.ownListing(ctx, id); err != nil {
		return nil, err
	}

	p, err := s.props.ToggleStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	slog.Info("property status toggled", "property_id", id, "status", p.Status)
	s.notifier.Notify(ctx, notify.LevelSuccess, "Property "+string(p.Status))
	return p, nil
}

// ApproveProperty publishes a pending listing. Admin only.
func (s *Service) ApproveProperty(ctx context.Context, id int64) (*property.Property, error) {
	if _, err := s.auth.RequireRole(ctx, user.RoleAdmin); err != nil {
		return nil, err
	}
	return s.SetPropertyStatus(ctx, id, property.StatusActive)
}

// RejectProperty hides a listing. Admin only.
func (s *Service) RejectProperty(ctx context.Context, id int64) (*property.Property, error) {
	if _, err := s.auth.RequireRole(ctx, user.RoleAdmin); err != nil {
		return nil, err
	}
	return s.SetPropertyStatus(ctx, id, property.StatusInactive)
}

// ToggleFeatured flips whether a listing is featured. Admin only.
func (s *Service) ToggleFeatured(ctx context.Context, id int64) (*property.Property, error) {
	if _, err := s.auth.RequireRole(ctx, user.RoleAdmin); err != nil {
		return nil, err
	}

	p, err := s.props.ToggleFeatured(ctx, id)
	if err != nil {
		return nil, err
	}

	msg := "Property removed from featured"
	if p.Featured {
		msg = "Property featured"
	}
	s.notifier.Notify(ctx, notify.LevelSuccess, msg)
	return p, nil
}

// AddReview rates an active listing as the current seeker.
func (s *Service) AddReview(ctx context.Context, id int64, rating int, comment string) (*property.Property, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleSeeker)
	if err != nil {
		return nil, err
	}

	p, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != property.StatusActive {
		return nil, apperr.NotFound("property", id)
	}

	p, err = s.props.AddReview(ctx, id, property.ReviewInput{
		UserID:   sess.ID,
		UserName: sess.Name,
		Rating:   rating,
		Comment:  comment,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.LevelSuccess, "Review added")
	return p, nil
}
