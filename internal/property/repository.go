package property

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/record"
)

// Key is the storage key of the property collection.
const Key = "properties"

// FeaturedLimit is the number of featured listings shown by default.
const FeaturedLimit = 6

// Repository provides CRUD operations for properties.
type Repository struct {
	props *kv.Collection[Property]
	now   record.Clock
}

// NewRepository creates a property repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{
		props: kv.NewCollection[Property](store, Key),
		now:   record.Now,
	}
}

// Create validates a new listing for owner and stores it as pending.
func (r *Repository) Create(ctx context.Context, owner Owner, in Input) (*Property, error) {
	p := Property{
		OwnerID:       owner.ID,
		OwnerName:     owner.Name,
		OwnerEmail:    owner.Email,
		OwnerPhone:    owner.Phone,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Type:          in.Type,
		Rent:          in.Rent,
		Deposit:       in.Deposit,
		Address:       strings.TrimSpace(in.Address),
		City:          strings.TrimSpace(in.City),
		State:         strings.TrimSpace(in.State),
		Pincode:       strings.TrimSpace(in.Pincode),
		Bedrooms:      in.Bedrooms,
		Bathrooms:     in.Bathrooms,
		Area:          in.Area,
		Furnished:     in.Furnished,
		Amenities:     append([]string{}, in.Amenities...),
		Images:        append([]string{}, in.Images...),
		AvailableFrom: in.AvailableFrom,
		Status:        StatusPending,
		Reviews:       []Review{},
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}

	err := r.props.Update(ctx, func(props []Property) ([]Property, error) {
		now := r.now()
		p.ID = record.NextID(props, func(p Property) int64 { return p.ID })
		p.CreatedAt = now
		p.UpdatedAt = now
		return append(props, p), nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating property: %w", err)
	}

	return &p, nil
}

// List returns all properties in creation order.
func (r *Repository) List(ctx context.Context) ([]*Property, error) {
	return r.FindWhere(ctx, func(*Property) bool { return true })
}

// ListByOwner returns the properties of one owner.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]*Property, error) {
	return r.FindWhere(ctx, func(p *Property) bool { return p.OwnerID == ownerID })
}

// FindWhere returns the properties matching pred.
func (r *Repository) FindWhere(ctx context.Context, pred func(*Property) bool) ([]*Property, error) {
	all, err := r.props.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading properties: %w", err)
	}

	props := []*Property{}
	for i := range all {
		if pred(&all[i]) {
			props = append(props, &all[i])
		}
	}
	return props, nil
}

// FindByID returns a property by its ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Property, error) {
	found, err := r.FindWhere(ctx, func(p *Property) bool { return p.ID == id })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound("property", id)
	}
	return found[0], nil
}

// Featured returns up to limit active featured listings. A limit of zero
// selects FeaturedLimit.
func (r *Repository) Featured(ctx context.Context, limit int) ([]*Property, error) {
	if limit <= 0 {
		limit = FeaturedLimit
	}
	props, err := r.FindWhere(ctx, func(p *Property) bool {
		return p.Featured && p.Status == StatusActive
	})
	if err != nil {
		return nil, err
	}
	if len(props) > limit {
		props = props[:limit]
	}
	return props, nil
}

// Compare returns the listings with the given ids in the order asked for.
// Ids without a listing are skipped.
func (r *Repository) Compare(ctx context.Context, ids []int64) ([]*Property, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	props := []*Property{}
	for _, id := range ids {
		i := slices.IndexFunc(all, func(p *Property) bool { return p.ID == id })
		if i >= 0 {
			props = append(props, all[i])
		}
	}
	return props, nil
}

// Update applies patch to a property, validates the merged listing and
// refreshes its updatedAt.
func (r *Repository) Update(ctx context.Context, id int64, patch Patch) (*Property, error) {
	return r.modify(ctx, id, func(p *Property) error {
		patch.apply(p)
		return Validate(p)
	})
}

// SetStatus moves a property to status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) (*Property, error) {
	st, ok := ParseStatus(string(status))
	if !ok {
		v := apperr.Violations{}
		v.Add("status", "must be pending, active, inactive or rented")
		return nil, v.Err()
	}
	return r.modify(ctx, id, func(p *Property) error {
		p.Status = st
		return nil
	})
}

// Approve publishes a listing.
func (r *Repository) Approve(ctx context.Context, id int64) (*Property, error) {
	return r.SetStatus(ctx, id, StatusActive)
}

// Reject hides a listing.
func (r *Repository) Reject(ctx context.Context, id int64) (*Property, error) {
	return r.SetStatus(ctx, id, StatusInactive)
}

// ToggleStatus flips a listing between active and inactive. Pending and
// rented listings are left alone and reported as a validation error.
func (r *Repository) ToggleStatus(ctx context.Context, id int64) (*Property, error) {
	return r.modify(ctx, id, func(p *Property) error {
		switch p.Status {
		case StatusActive:
			p.Status = StatusInactive
		case StatusInactive:
			p.Status = StatusActive
		default:
			v := apperr.Violations{}
			v.Add("status", fmt.Sprintf("cannot toggle a %s listing", p.Status))
			return v.Err()
		}
		return nil
	})
}

// ToggleFeatured flips the featured flag of a listing.
func (r *Repository) ToggleFeatured(ctx context.Context, id int64) (*Property, error) {
	return r.modify(ctx, id, func(p *Property) error {
		p.Featured = !p.Featured
		return nil
	})
}

// IncrementViews adds one to the view counter of a listing.
func (r *Repository) IncrementViews(ctx context.Context, id int64) (*Property, error) {
	return r.modify(ctx, id, func(p *Property) error {
		p.Views++
		return nil
	})
}

// ReviewInput holds a new review.
type ReviewInput struct {
	UserID   int64
	UserName string
	Rating   int
	Comment  string
}

// AddReview appends a review and recomputes the listing rating as the mean
// of all its reviews.
func (r *Repository) AddReview(ctx context.Context, id int64, in ReviewInput) (*Property, error) {
	if in.Rating < 1 || in.Rating > 5 {
		v := apperr.Violations{}
		v.Add("rating", "must be between 1 and 5")
		return nil, v.Err()
	}

	return r.modify(ctx, id, func(p *Property) error {
		p.Reviews = append(p.Reviews, Review{
			ID:        record.NextID(p.Reviews, func(rv Review) int64 { return rv.ID }),
			UserID:    in.UserID,
			UserName:  in.UserName,
			Rating:    in.Rating,
			Comment:   strings.TrimSpace(in.Comment),
			CreatedAt: r.now(),
		})

		var sum int
		for _, rv := range p.Reviews {
			sum += rv.Rating
		}
		p.Rating = float64(sum) / float64(len(p.Reviews))
		return nil
	})
}

// Delete removes a property by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	err := r.props.Update(ctx, func(props []Property) ([]Property, error) {
		i := slices.IndexFunc(props, func(p Property) bool { return p.ID == id })
		if i < 0 {
			return nil, apperr.NotFound("property", id)
		}
		return slices.Delete(props, i, i+1), nil
	})
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return nil
}

// DeleteByOwner removes every property of ownerID and returns how many were
// removed.
func (r *Repository) DeleteByOwner(ctx context.Context, ownerID int64) (int, error) {
	var removed int
	err := r.props.Update(ctx, func(props []Property) ([]Property, error) {
		kept := slices.DeleteFunc(props, func(p Property) bool { return p.OwnerID == ownerID })
		removed = len(props) - len(kept)
		if removed == 0 {
			return nil, kv.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting properties of owner %d: %w", ownerID, err)
	}
	return removed, nil
}

func (r *Repository) modify(ctx context.Context, id int64, fn func(*Property) error) (*Property, error) {
	var updated Property
	err := r.props.Update(ctx, func(props []Property) ([]Property, error) {
		i := slices.IndexFunc(props, func(p Property) bool { return p.ID == id })
		if i < 0 {
			return nil, apperr.NotFound("property", id)
		}

		p := props[i]
		p.Amenities = slices.Clone(p.Amenities)
		p.Images = slices.Clone(p.Images)
		p.Reviews = slices.Clone(p.Reviews)
		if err := fn(&p); err != nil {
			return nil, err
		}
		p.UpdatedAt = record.Touch(p.UpdatedAt, r.now())

		props[i] = p
		updated = p
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
