// Package inquiry stores the messages seekers send to listing owners.
package inquiry

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/record"
)

// Key is the storage key of the inquiry collection.
const Key = "inquiries"

// Status tracks an inquiry from creation to the owner's reply.
type Status string

const (
	StatusNew       Status = "new"
	// StatusSent is set once the owner email reaches SMTP or the mail
	// queue. Inquiries stay new when mail is only logged.
	StatusSent      Status = "sent"
	StatusResponded Status = "responded"
)

// ValidStatus returns true if s is a known inquiry status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusNew, StatusSent, StatusResponded:
		return true
	}
	return false
}

// UnmarshalJSON reads the older "pending" status as new.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if name == "pending" || name == "" {
		name = string(StatusNew)
	}
	*s = Status(name)
	return nil
}

// Open reports whether the owner has not replied yet.
func (s Status) Open() bool {
	return s != StatusResponded
}

// Inquiry is a seeker's message about a listing. Property and owner fields
// are copied at creation so listings can be read without a join.
type Inquiry struct {
	ID            int64      `json:"id"`
	PropertyID    int64      `json:"propertyId"`
	PropertyTitle string     `json:"propertyTitle"`
	SeekerID      int64      `json:"userId"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	OwnerID       int64      `json:"ownerId"`
	OwnerName     string     `json:"ownerName"`
	OwnerEmail    string     `json:"ownerEmail,omitempty"`
	Message       string     `json:"message"`
	Status        Status     `json:"status"`
	Reply         string     `json:"reply,omitempty"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Input holds a new inquiry.
type Input struct {
	PropertyID    int64
	PropertyTitle string
	SeekerID      int64
	Name          string
	Email         string
	Phone         string
	OwnerID       int64
	OwnerName     string
	OwnerEmail    string
	Message       string
}

// Repository provides access to inquiries.
type Repository struct {
	items *kv.Collection[Inquiry]
	now   record.Clock
}

// NewRepository creates an inquiry repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{
		items: kv.NewCollection[Inquiry](store, Key),
		now:   record.Now,
	}
}

// Create stores a new inquiry with status new.
func (r *Repository) Create(ctx context.Context, in Input) (*Inquiry, error) {
	v := apperr.Violations{}
	if strings.TrimSpace(in.Message) == "" {
		v.Add("message", "is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		v.Add("email", "is required")
	}
	if in.PropertyID == 0 {
		v.Add("propertyId", "is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	var created Inquiry
	err := r.items.Update(ctx, func(items []Inquiry) ([]Inquiry, error) {
		now := r.now()
		created = Inquiry{
			ID:            record.NextID(items, func(i Inquiry) int64 { return i.ID }),
			PropertyID:    in.PropertyID,
			PropertyTitle: in.PropertyTitle,
			SeekerID:      in.SeekerID,
			Name:          strings.TrimSpace(in.Name),
			Email:         strings.TrimSpace(in.Email),
			Phone:         strings.TrimSpace(in.Phone),
			OwnerID:       in.OwnerID,
			OwnerName:     in.OwnerName,
			OwnerEmail:    in.OwnerEmail,
			Message:       strings.TrimSpace(in.Message),
			Status:        StatusNew,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return append(items, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating inquiry: %w", err)
	}
	return &created, nil
}

// List returns every inquiry in creation order.
func (r *Repository) List(ctx context.Context) ([]*Inquiry, error) {
	return r.where(ctx, func(*Inquiry) bool { return true })
}

// FindByID returns an inquiry by its ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Inquiry, error) {
	found, err := r.where(ctx, func(i *Inquiry) bool { return i.ID == id })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound("inquiry", id)
	}
	return found[0], nil
}

// ByProperty returns the inquiries about one listing.
func (r *Repository) ByProperty(ctx context.Context, propertyID int64) ([]*Inquiry, error) {
	return r.where(ctx, func(i *Inquiry) bool { return i.PropertyID == propertyID })
}

// BySeeker returns the inquiries a seeker sent.
func (r *Repository) BySeeker(ctx context.Context, seekerID int64) ([]*Inquiry, error) {
	return r.where(ctx, func(i *Inquiry) bool { return i.SeekerID == seekerID })
}

// ByOwner returns the inquiries an owner received.
func (r *Repository) ByOwner(ctx context.Context, ownerID int64) ([]*Inquiry, error) {
	return r.where(ctx, func(i *Inquiry) bool { return i.OwnerID == ownerID })
}

// SetStatus changes the status of an inquiry.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) (*Inquiry, error) {
	if !ValidStatus(string(status)) {
		v := apperr.Violations{}
		v.Add("status", "must be new, sent or responded")
		return nil, v.Err()
	}
	return r.modify(ctx, id, func(i *Inquiry) error {
		i.Status = status
		return nil
	})
}

// Respond records the owner's reply and marks the inquiry responded.
func (r *Repository) Respond(ctx context.Context, id int64, reply string) (*Inquiry, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		v := apperr.Violations{}
		v.Add("reply", "is required")
		return nil, v.Err()
	}
	return r.modify(ctx, id, func(i *Inquiry) error {
		at := r.now()
		i.Reply = reply
		i.RespondedAt = &at
		i.Status = StatusResponded
		return nil
	})
}

// Delete removes an inquiry.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	err := r.items.Update(ctx, func(items []Inquiry) ([]Inquiry, error) {
		i := slices.IndexFunc(items, func(q Inquiry) bool { return q.ID == id })
		if i < 0 {
			return nil, apperr.NotFound("inquiry", id)
		}
		return slices.Delete(items, i, i+1), nil
	})
	if err != nil {
		return fmt.Errorf("deleting inquiry: %w", err)
	}
	return nil
}

// DeleteByProperty removes every inquiry about the given listings and
// returns how many were removed.
func (r *Repository) DeleteByProperty(ctx context.Context, propertyIDs ...int64) (int, error) {
	var removed int
	err := r.items.Update(ctx, func(items []Inquiry) ([]Inquiry, error) {
		kept := slices.DeleteFunc(items, func(q Inquiry) bool {
			return slices.Contains(propertyIDs, q.PropertyID)
		})
		removed = len(items) - len(kept)
		if removed == 0 {
			return nil, kv.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting inquiries: %w", err)
	}
	return removed, nil
}

func (r *Repository) where(ctx context.Context, pred func(*Inquiry) bool) ([]*Inquiry, error) {
	all, err := r.items.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading inquiries: %w", err)
	}
	out := []*Inquiry{}
	for i := range all {
		if pred(&all[i]) {
			out = append(out, &all[i])
		}
	}
	return out, nil
}

func (r *Repository) modify(ctx context.Context, id int64, fn func(*Inquiry) error) (*Inquiry, error) {
	var updated Inquiry
	err := r.items.Update(ctx, func(items []Inquiry) ([]Inquiry, error) {
		i := slices.IndexFunc(items, func(q Inquiry) bool { return q.ID == id })
		if i < 0 {
			return nil, apperr.NotFound("inquiry", id)
		}
		q := items[i]
		if err := fn(&q); err != nil {
			return nil, err
		}
		q.UpdatedAt = record.Touch(q.UpdatedAt, r.now())
		items[i] = q
		updated = q
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
