// Package marketplace is the entry point callers use to drive the rental
// marketplace. A Service ties the repositories to the current session and
// enforces who may do what.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/auth"
	"github.com/evcraddock/rental-bridge/internal/favorite"
	"github.com/evcraddock/rental-bridge/internal/history"
	"github.com/evcraddock/rental-bridge/internal/inquiry"
	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/notify"
	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// Options configures a Service.
type Options struct {
	// HashCost is the bcrypt cost for new passwords. Zero selects the
	// bcrypt default.
	HashCost int

	// Notifier receives user-facing messages. Nil discards them.
	Notifier notify.Notifier

	// Mailer dispatches inquiry emails. Nil disables email.
	Mailer notify.Mailer
}

// Service exposes marketplace operations on behalf of the current session.
type Service struct {
	store     kv.Store
	users     *user.Repository
	props     *property.Repository
	inquiries *inquiry.Repository
	favorites *favorite.Repository
	history   *history.Repository
	auth      *auth.Manager
	notifier  notify.Notifier
	mailer    notify.Mailer
}

// New creates a Service storing records in store. Sessions started without
// "remember me" are kept in tab.
func New(store, tab kv.Store, opts Options) *Service {
	users := user.NewRepository(store, opts.HashCost)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard
	}

	return &Service{
		store:     store,
		users:     users,
		props:     property.NewRepository(store),
		inquiries: inquiry.NewRepository(store),
		favorites: favorite.NewRepository(store),
		history:   history.NewRepository(store),
		auth:      auth.NewManager(users, store, tab),
		notifier:  notifier,
		mailer:    opts.Mailer,
	}
}

// Users returns the user repository.
func (s *Service) Users() *user.Repository { return s.users }

// Properties returns the property repository.
func (s *Service) Properties() *property.Repository { return s.props }

// Register creates an account. Only an admin may create another admin.
func (s *Service) Register(ctx context.Context, in user.Input) (*user.Public, error) {
	if in.Role == user.RoleAdmin && !s.auth.HasRole(ctx, user.RoleAdmin) {
		return nil, fmt.Errorf("registering admin: %w", apperr.ErrAccessDenied)
	}

	u, err := s.auth.Register(ctx, in)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.LevelSuccess, "Registration successful")
	pub := u.Public()
	return &pub, nil
}

// Login starts a session. See auth.Manager.Login.
func (s *Service) Login(ctx context.Context, email, password string, remember bool) (*user.Session, error) {
	sess, err := s.auth.Login(ctx, email, password, remember)
	if err != nil {
		s.notifier.Notify(ctx, notify.LevelError, loginMessage(err))
		return nil, err
	}
	s.notifier.Notify(ctx, notify.LevelSuccess, "Welcome back, "+sess.Name)
	return sess, nil
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid password"
	case errors.Is(err, auth.ErrSuspended):
		return "Your account has been suspended"
	}
	return "Login failed"
}

// Logout ends the current session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		return err
	}
	s.notifier.Notify(ctx, notify.LevelInfo, "Logged out")
	return nil
}

// CurrentUser returns the current session, or nil when nobody is logged in.
func (s *Service) CurrentUser(ctx context.Context) (*user.Session, error) {
	return s.auth.CurrentUser(ctx)
}

// HasRole reports whether the current session has role.
func (s *Service) HasRole(ctx context.Context, role user.Role) bool {
	return s.auth.HasRole(ctx, role)
}

// ProfilePatch holds the profile fields a user may change on their own
// account.
type ProfilePatch struct {
	Name  *string
	Phone *string
}

// UpdateProfile changes the current user's name or phone.
func (s *Service) UpdateProfile(ctx context.Context, patch ProfilePatch) (*user.Session, error) {
	sess, err := s.auth.RequireRole(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Update(ctx, sess.ID, user.Patch{Name: patch.Name, Phone: patch.Phone})
	if err != nil {
		return nil, err
	}
	if err := s.auth.Refresh(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("profile updated", "user_id", u.ID)
	s.notifier.Notify(ctx, notify.LevelSuccess, "Profile updated")
	updated := u.Session()
	return &updated, nil
}
