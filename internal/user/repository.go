package user

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/record"
)

// Key is the storage key of the user collection.
const Key = "users"

// OwnedRemover deletes every record owned by a user. The property
// repository satisfies it for the account-deletion cascade.
type OwnedRemover interface {
	DeleteByOwner(ctx context.Context, ownerID int64) (int, error)
}

// Repository provides CRUD operations for users.
type Repository struct {
	users    *kv.Collection[User]
	hashCost int
	now      record.Clock
}

// NewRepository creates a user repository. A hashCost of zero selects the
// bcrypt default.
func NewRepository(store kv.Store, hashCost int) *Repository {
	return &Repository{
		users:    kv.NewCollection[User](store, Key),
		hashCost: hashCost,
		now:      record.Now,
	}
}

// List returns all users in registration order.
func (r *Repository) List(ctx context.Context) ([]*User, error) {
	return r.FindWhere(ctx, func(*User) bool { return true })
}

// FindWhere returns the users matching pred.
func (r *Repository) FindWhere(ctx context.Context, pred func(*User) bool) ([]*User, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	users := []*User{}
	for i := range all {
		if pred(&all[i]) {
			users = append(users, &all[i])
		}
	}
	return users, nil
}

// FindByID returns a user by its ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(all, func(u User) bool { return u.ID == id })
	if i < 0 {
		return nil, apperr.NotFound("user", id)
	}
	return &all[i], nil
}

// FindByEmail returns the user registered under email, ignoring case.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexByEmail(all, email)
	if i < 0 {
		return nil, fmt.Errorf("user %s %w", email, apperr.ErrNotFound)
	}
	return &all[i], nil
}

// Search returns users whose name, email or role contains query, ignoring
// case. An empty query matches everyone.
func (r *Repository) Search(ctx context.Context, query string) ([]*User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return r.FindWhere(ctx, func(u *User) bool {
		return strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(string(u.Role), q)
	})
}

// Create registers a new user. The email must not already be registered.
func (r *Repository) Create(ctx context.Context, in Input) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, r.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var created User
	err = r.users.Update(ctx, func(users []User) ([]User, error) {
		if indexByEmail(users, in.Email) >= 0 {
			return nil, fmt.Errorf("email %s %w", in.Email, apperr.ErrConflict)
		}

		now := r.now()
		created = User{
			ID:        record.NextID(users, func(u User) int64 { return u.ID }),
			Name:      in.Name,
			Email:     in.Email,
			Phone:     in.Phone,
			Password:  hash,
			Role:      in.Role,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return append(users, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &created, nil
}

// Update applies patch to a user and refreshes its updatedAt.
func (r *Repository) Update(ctx context.Context, id int64, patch Patch) (*User, error) {
	return r.modify(ctx, id, func(u *User) error {
		if patch.Name != nil {
			u.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Phone != nil {
			u.Phone = strings.TrimSpace(*patch.Phone)
		}
		if patch.Status != nil {
			u.Status = *patch.Status
		}
		return validateUser(u)
	})
}

// SetStatus activates or suspends a user.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) (*User, error) {
	return r.Update(ctx, id, Patch{Status: &status})
}

// SetPassword replaces a user's password with a fresh hash of plain.
func (r *Repository) SetPassword(ctx context.Context, id int64, plain string) error {
	hash, err := HashPassword(plain, r.hashCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = r.modify(ctx, id, func(u *User) error {
		u.Password = hash
		return nil
	})
	return err
}

// Delete removes a user after running each cascade for its id.
func (r *Repository) Delete(ctx context.Context, id int64, cascade ...OwnedRemover) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}

	for _, c := range cascade {
		if _, err := c.DeleteByOwner(ctx, id); err != nil {
			return fmt.Errorf("deleting records owned by user %d: %w", id, err)
		}
	}

	err := r.users.Update(ctx, func(users []User) ([]User, error) {
		i := slices.IndexFunc(users, func(u User) bool { return u.ID == id })
		if i < 0 {
			return nil, kv.ErrUnchanged
		}
		return slices.Delete(users, i, i+1), nil
	})
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	return nil
}

func (r *Repository) modify(ctx context.Context, id int64, fn func(*User) error) (*User, error) {
	var updated User
	err := r.users.Update(ctx, func(users []User) ([]User, error) {
		i := slices.IndexFunc(users, func(u User) bool { return u.ID == id })
		if i < 0 {
			return nil, apperr.NotFound("user", id)
		}

		u := users[i]
		normalize(&u)
		if err := fn(&u); err != nil {
			return nil, err
		}
		u.UpdatedAt = record.Touch(u.UpdatedAt, r.now())

		users[i] = u
		updated = u
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *Repository) load(ctx context.Context) ([]User, error) {
	users, err := r.users.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	for i := range users {
		normalize(&users[i])
	}
	return users, nil
}

// normalize fills defaults for accounts stored without a status.
func normalize(u *User) {
	if u.Status == "" {
		u.Status = StatusActive
	}
}

func indexByEmail(users []User, email string) int {
	return slices.IndexFunc(users, func(u User) bool {
		return strings.EqualFold(u.Email, email)
	})
}
