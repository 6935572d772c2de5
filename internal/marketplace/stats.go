package marketplace

import (
	"context"

	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/stats"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// ActivityLimit is the number of feed entries RecentActivity returns for a
// limit of zero.
const ActivityLimit = 10

// TopLimit is the number of listings TopProperties returns for a limit of
// zero.
const TopLimit = 5

// AdminStats summarizes the whole marketplace. Admin only.
func (s *Service) AdminStats(ctx context.Context) (stats.AdminStats, error) {
	if _, err := s.auth.RequireRole(ctx, user.RoleAdmin); err != nil {
		return stats.AdminStats{}, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return stats.AdminStats{}, err
	}
	props, err := s.props.List(ctx)
	if err != nil {
		return stats.AdminStats{}, err
	}
	inqs, err := s.inquiries.List(ctx)
	if err != nil {
		return stats.AdminStats{}, err
	}
	return stats.Admin(users, props, inqs), nil
}

// OwnerStats summarizes the current owner's listings.
func (s *Service) OwnerStats(ctx context.Context) (stats.OwnerStats, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleOwner)
	if err != nil {
		return stats.OwnerStats{}, err
	}

	props, err := s.props.ListByOwner(ctx, sess.ID)
	if err != nil {
		return stats.OwnerStats{}, err
	}
	inqs, err := s.inquiries.ByOwner(ctx, sess.ID)
	if err != nil {
		return stats.OwnerStats{}, err
	}
	return stats.Owner(sess.ID, props, inqs), nil
}

// SeekerStats summarizes the current seeker's activity.
func (s *Service) SeekerStats(ctx context.Context) (stats.SeekerStats, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleSeeker)
	if err != nil {
		return stats.SeekerStats{}, err
	}

	saved, err := s.favorites.ListByUser(ctx, sess.ID)
	if err != nil {
		return stats.SeekerStats{}, err
	}
	viewed, err := s.history.List(ctx, sess.ID)
	if err != nil {
		return stats.SeekerStats{}, err
	}
	inqs, err := s.inquiries.BySeeker(ctx, sess.ID)
	if err != nil {
		return stats.SeekerStats{}, err
	}
	return stats.Seeker(sess.ID, saved, viewed, inqs), nil
}

// RecentActivity returns the latest registrations, listings and inquiries,
// newest first. Admin only.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]stats.Activity, error) {
	if _, err := s.auth.RequireRole(ctx, user.RoleAdmin); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = ActivityLimit
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	props, err := s.props.List(ctx)
	if err != nil {
		return nil, err
	}
	inqs, err := s.inquiries.List(ctx)
	if err != nil {
		return nil, err
	}
	return stats.RecentActivity(users, props, inqs, limit), nil
}

// TopProperties returns the current owner's most viewed listings.
func (s *Service) TopProperties(ctx context.Context, limit int) ([]*property.Property, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleOwner)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = TopLimit
	}

	props, err := s.props.ListByOwner(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return stats.TopByViews(props, limit), nil
}

// MarketSummary describes the active listings on offer.
type MarketSummary struct {
	Listings int           `json:"listings"`
	ByCity   []stats.Count `json:"byCity"`
	ByType   []stats.Count `json:"byType"`
	Rent     stats.Range   `json:"rent"`
}

// Market summarizes the active listings. Anyone may call it.
func (s *Service) Market(ctx context.Context) (MarketSummary, error) {
	active, err := s.props.FindWhere(ctx, func(p *property.Property) bool {
		return p.Status == property.StatusActive
	})
	if err != nil {
		return MarketSummary{}, err
	}
	return MarketSummary{
		Listings: len(active),
		ByCity:   stats.CountByCity(active),
		ByType:   stats.CountByType(active),
		Rent:     stats.RentRange(active),
	}, nil
}
