// Package auth manages registration, login and the current-user session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/record"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// SessionKey is the storage key of the current-user session in both scopes.
const SessionKey = "currentUser"

// sessionExpiry bounds how long a remembered session stays valid.
const sessionExpiry = 30 * 24 * time.Hour // 30 days

var (
	// ErrUserNotFound is returned by Login for an unregistered email.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned by Login for a wrong password.
	ErrInvalidCredentials = errors.New("invalid password")

	// ErrSuspended is returned by Login for a suspended account.
	ErrSuspended = errors.New("account suspended")
)

// Users is the account storage the manager authenticates against.
type Users interface {
	Create(ctx context.Context, in user.Input) (*user.User, error)
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	SetPassword(ctx context.Context, id int64, plain string) error
}

type session struct {
	user.Session
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Manager holds at most one current-user session. A remembered session
// lives in the durable store; any other lives in the tab store, whose
// lifetime ends with the caller's.
type Manager struct {
	users   Users
	durable *kv.Value[session]
	tab     *kv.Value[session]
	now     record.Clock
}

// NewManager creates a session manager over durable and tab-scoped stores.
func NewManager(users Users, durable, tab kv.Store) *Manager {
	return &Manager{
		users:   users,
		durable: kv.NewValue[session](durable, SessionKey),
		tab:     kv.NewValue[session](tab, SessionKey),
		now:     record.Now,
	}
}

// Register creates a new account.
func (m *Manager) Register(ctx context.Context, in user.Input) (*user.User, error) {
	u, err := m.users.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login checks the credentials and starts a session in the durable scope
// when remember is set, in the tab scope otherwise. Any previous session is
// ended first.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) (*user.Session, error) {
	u, err := m.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, legacy := user.VerifyPassword(u.Password, password)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !u.Active() {
		return nil, ErrSuspended
	}

	if legacy {
		if err := m.users.SetPassword(ctx, u.ID, password); err != nil {
			slog.Warn("rehashing legacy password", "user_id", u.ID, "error", err)
		}
	}

	if err := m.Logout(ctx); err != nil {
		return nil, err
	}

	s := session{Session: u.Session()}
	target := m.tab
	if remember {
		expires := m.now().Add(sessionExpiry)
		s.ExpiresAt = &expires
		target = m.durable
	}
	if err := target.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	slog.Info("user logged in", "user_id", u.ID, "remember", remember)
	return &s.Session, nil
}

// Logout clears the session from both scopes.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.durable.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	if err := m.tab.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// CurrentUser returns the session, checking the durable scope before the
// tab scope. It returns nil without error when nobody is logged in. A
// session whose account expired, was deleted or was suspended is cleared.
func (m *Manager) CurrentUser(ctx context.Context) (*user.Session, error) {
	for _, scope := range []*kv.Value[session]{m.durable, m.tab} {
		s, ok, err := scope.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading session: %w", err)
		}
		if !ok {
			continue
		}

		valid, err := m.stillValid(ctx, s)
		if err != nil {
			return nil, err
		}
		if !valid {
			if err := scope.Clear(ctx); err != nil {
				return nil, fmt.Errorf("clearing session: %w", err)
			}
			continue
		}
		return &s.Session, nil
	}
	return nil, nil
}

func (m *Manager) stillValid(ctx context.Context, s session) (bool, error) {
	if s.ExpiresAt != nil && m.now().After(*s.ExpiresAt) {
		return false, nil
	}
	u, err := m.users.FindByID(ctx, s.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking session user: %w", err)
	}
	return u.Active() && u.Role == s.Role, nil
}

// Refresh rewrites the session of u, in whichever scope holds it, from the
// current account record. Other sessions are left alone.
func (m *Manager) Refresh(ctx context.Context, u *user.User) error {
	for _, scope := range []*kv.Value[session]{m.durable, m.tab} {
		s, ok, err := scope.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		if !ok || s.ID != u.ID {
			continue
		}
		s.Session = u.Session()
		if err := scope.Save(ctx, s); err != nil {
			return fmt.Errorf("storing session: %w", err)
		}
	}
	return nil
}

// IsLoggedIn reports whether there is a current session.
func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	s, err := m.CurrentUser(ctx)
	return err == nil && s != nil
}

// HasRole reports whether the current session has role.
func (m *Manager) HasRole(ctx context.Context, role user.Role) bool {
	s, err := m.CurrentUser(ctx)
	return err == nil && s != nil && s.Role == role
}

// RequireRole returns the current session when it has one of roles, or any
// session when roles is empty. It fails closed: ErrNotLoggedIn without a
// session and ErrAccessDenied on a role mismatch.
func (m *Manager) RequireRole(ctx context.Context, roles ...user.Role) (*user.Session, error) {
	s, err := m.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.ErrNotLoggedIn
	}
	if len(roles) > 0 && !slices.Contains(roles, s.Role) {
		return nil, fmt.Errorf("%s role required: %w", joinRoles(roles), apperr.ErrAccessDenied)
	}
	return s, nil
}

func joinRoles(roles []user.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}
