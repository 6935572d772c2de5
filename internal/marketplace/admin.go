package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/favorite"
	"github.com/evcraddock/rental-bridge/internal/inquiry"
	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/notify"
	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// Entity names a collection that can be exported.
type Entity string

// Exportable collections.
const (
	EntityUsers      Entity = "users"
	EntityProperties Entity = "properties"
	EntityInquiries  Entity = "inquiries"
	EntityFavorites  Entity = "favorites"
)

// Entities lists every exportable collection.
var Entities = []Entity{EntityUsers, EntityProperties, EntityInquiries, EntityFavorites}

// ExportCollection returns a collection as indented JSON. Passwords are
// never exported. Admin only.
func (s *Service) ExportCollection(ctx context.Context, entity Entity) ([]byte, error) {
	if _, err := s.auth.RequireRole(ctx, user.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch entity {
	case EntityUsers:
		var users []user.Public
		users, err = s.ListUsers(ctx)
		if err == nil {
			data, err = json.MarshalIndent(users, "", "  ")
		}
	case EntityProperties:
		data, err = kv.Export(ctx, s.store, property.Key)
	case EntityInquiries:
		data, err = kv.Export(ctx, s.store, inquiry.Key)
	case EntityFavorites:
		data, err = kv.Export(ctx, s.store, favorite.Key)
	default:
		v := apperr.Violations{}
		v.Add("entity", "must be users, properties, inquiries or favorites")
		return nil, v.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", entity, err)
	}

	s.notifier.Notify(ctx, notify.LevelSuccess, "Data exported successfully")
	return data, nil
}

// ListUsers returns every account without passwords. Admin only.
func (s *Service) ListUsers(ctx context.Context) ([]user.Public, error) {
	if _, err := s.auth.RequireRole(ctx, user.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return public(users), nil
}

// SearchUsers returns accounts whose name, email or role contains query.
// Admin only.
func (s *Service) SearchUsers(ctx context.Context, query string) ([]user.Public, error) {
	if _, err := s.auth.RequireRole(ctx, user.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return public(users), nil
}

func public(users []*user.User) []user.Public {
	out := make([]user.Public, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

// SetUserStatus activates or suspends an account. Admins cannot suspend
// themselves.
func (s *Service) SetUserStatus(ctx context.Context, id int64, status user.Status) (*user.Public, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if id == sess.ID && status != user.StatusActive {
		return nil, fmt.Errorf("suspending own account: %w", apperr.ErrAccessDenied)
	}

	u, err := s.users.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	slog.Info("user status changed", "user_id", id, "status", u.Status, "by", sess.ID)
	msg := "User suspended"
	if u.Active() {
		msg = "User activated"
	}
	s.notifier.Notify(ctx, notify.LevelSuccess, msg)
	pub := u.Public()
	return &pub, nil
}

// DeleteUser removes an account together with its listings, the inquiries
// and favorites of those listings, and the account's own favorites and
// history. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	sess, err := s.auth.RequireRole(ctx, user.RoleAdmin)
	if err != nil {
		return err
	}
	if id == sess.ID {
		return fmt.Errorf("deleting own account: %w", apperr.ErrAccessDenied)
	}

	if err := s.users.Delete(ctx, id, listingCascade{s}); err != nil {
		return err
	}
	if _, err := s.favorites.RemoveByUser(ctx, id); err != nil {
		return err
	}
	if err := s.history.Clear(ctx, id); err != nil {
		return err
	}

	slog.Info("user deleted", "user_id", id, "by", sess.ID)
	s.notifier.Notify(ctx, notify.LevelSuccess, "User deleted successfully")
	return nil
}

// listingCascade deletes an owner's listings and everything that refers
// to them.
type listingCascade struct{ s *Service }

func (c listingCascade) DeleteByOwner(ctx context.Context, ownerID int64) (int, error) {
	props, err := c.s.props.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	ids := make([]int64, len(props))
	for i, p := range props {
		ids[i] = p.ID
	}

	if err := c.s.removeListingRecords(ctx, ids...); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return c.s.props.DeleteByOwner(ctx, ownerID)
}
