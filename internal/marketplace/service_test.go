package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/auth"
	"github.com/evcraddock/rental-bridge/internal/email"
	"github.com/evcraddock/rental-bridge/internal/inquiry"
	"github.com/evcraddock/rental-bridge/internal/kv"
	"github.com/evcraddock/rental-bridge/internal/notify"
	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/user"
)

const password = "Secr3t!"

type note struct {
	level notify.Level
	msg   string
}

type testEnv struct {
	store   *kv.Memory
	svc     *Service
	notes   []note
	mail    []email.Message
	mailErr error

	admin, owner, other, seeker *user.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{store: kv.NewMemory()}
	env.svc = New(env.store, kv.NewMemory(), Options{
		HashCost: bcrypt.MinCost,
		Notifier: notify.Func(func(_ context.Context, level notify.Level, msg string) {
			env.notes = append(env.notes, note{level, msg})
		}),
		Mailer: notify.MailerFunc(func(_ context.Context, msg email.Message) error {
			if env.mailErr != nil {
				return env.mailErr
			}
			env.mail = append(env.mail, msg)
			return nil
		}),
	})

	env.admin = env.createUser(t, "Admin User", "admin@rentalbridge.com", user.RoleAdmin)
	env.owner = env.createUser(t, "John Owner", "owner@test.com", user.RoleOwner)
	env.other = env.createUser(t, "Olga Owner", "olga@test.com", user.RoleOwner)
	env.seeker = env.createUser(t, "Jane Seeker", "seeker@test.com", user.RoleSeeker)
	return env
}

func (e *testEnv) createUser(t *testing.T, name, mail string, role user.Role) *user.User {
	t.Helper()
	u, err := e.svc.Users().Create(context.Background(), user.Input{
		Name:     name,
		Email:    mail,
		Phone:    "+1234567890",
		Password: password,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("creating %s: %v", mail, err)
	}
	return u
}

func (e *testEnv) as(t *testing.T, u *user.User) {
	t.Helper()
	if _, err := e.svc.Login(context.Background(), u.Email, password, true); err != nil {
		t.Fatalf("login %s: %v", u.Email, err)
	}
}

func (e *testEnv) lastNote() note {
	if len(e.notes) == 0 {
		return note{}
	}
	return e.notes[len(e.notes)-1]
}

func listing(title string, rent int64) property.Input {
	return property.Input{
		Title:         title,
		Description:   "A well kept home close to schools, markets and public transport links.",
		Type:          property.TypeApartment,
		Rent:          rent,
		Deposit:       rent * 2,
		Address:       "Tower A, Sunshine Residency, Ring Road",
		City:          "Surat",
		State:         "Gujarat",
		Pincode:       "395007",
		Bedrooms:      2,
		Bathrooms:     2,
		Area:          1200,
		Furnished:     property.FurnishedFull,
		Amenities:     []string{"parking", "wifi"},
		Images:        []string{"https://images.example.com/1.jpg"},
		AvailableFrom: "2025-01-15",
	}
}

// publish creates a listing as owner and has the admin approve it. The
// session is left with the admin.
func (e *testEnv) publish(t *testing.T, owner *user.User, title string, rent int64) *property.Property {
	t.Helper()
	ctx := context.Background()
	e.as(t, owner)
	p, err := e.svc.CreateProperty(ctx, listing(title, rent))
	if err != nil {
		t.Fatalf("create property: %v", err)
	}
	e.as(t, e.admin)
	p, err = e.svc.ApproveProperty(ctx, p.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	return p
}

func ids(props []*property.Property) []int64 {
	out := make([]int64, len(props))
	for i, p := range props {
		out[i] = p.ID
	}
	return out
}

func TestRegisterAndLoginScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	pub, err := env.svc.Register(ctx, user.Input{
		Name: "Jane", Email: "jane@x.com", Phone: "1234567890", Password: password, Role: user.RoleSeeker,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if pub.Status != user.StatusActive {
		t.Errorf("status = %q, want active", pub.Status)
	}
	raw, _ := json.Marshal(pub)
	if strings.Contains(string(raw), "password") {
		t.Errorf("registration result leaks password: %s", raw)
	}

	if _, err := env.svc.Login(ctx, "jane@x.com", "wrong", false); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if n := env.lastNote(); n.level != notify.LevelError || n.msg != "Invalid password" {
		t.Errorf("note = %+v", n)
	}

	sess, err := env.svc.Login(ctx, "jane@x.com", password, false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	raw, _ = json.Marshal(sess)
	if strings.Contains(string(raw), "password") {
		t.Errorf("session leaks password: %s", raw)
	}
	if !env.svc.HasRole(ctx, user.RoleSeeker) {
		t.Error("expected seeker session")
	}

	if err := env.svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if cur, _ := env.svc.CurrentUser(ctx); cur != nil {
		t.Errorf("current user after logout = %+v", cur)
	}
}

func TestRegisterAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	in := user.Input{Name: "Root", Email: "root@x.com", Phone: "1234567890", Password: password, Role: user.RoleAdmin}

	if _, err := env.svc.Register(ctx, in); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("anonymous admin registration err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.admin)
	if _, err := env.svc.Register(ctx, in); err != nil {
		t.Fatalf("admin registering admin: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Register(context.Background(), user.Input{
		Name: "Jane", Email: "SEEKER@test.com", Phone: "1234567890", Password: password, Role: user.RoleSeeker,
	})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestModerationScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.as(t, env.owner)
	p, err := env.svc.CreateProperty(ctx, listing("Sunny two bedroom flat", 20000))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != property.StatusPending {
		t.Fatalf("status = %q, want pending", p.Status)
	}
	if p.OwnerName != "John Owner" || p.OwnerEmail != "owner@test.com" {
		t.Errorf("owner fields = %q %q", p.OwnerName, p.OwnerEmail)
	}

	if _, err := env.svc.ApproveProperty(ctx, p.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("owner approve err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.admin)
	if _, err := env.svc.ApproveProperty(ctx, p.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	active, err := env.svc.ListProperties(ctx, property.Filter{Statuses: []property.Status{property.StatusActive}}, property.SortNewest)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != p.ID {
		t.Errorf("active = %v, want [%d]", ids(active), p.ID)
	}

	pending, err := env.svc.ListProperties(ctx, property.Filter{Statuses: []property.Status{property.StatusPending}}, property.SortNewest)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %v, want none", ids(pending))
	}
}

func TestListPropertiesVisibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	published := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	env.as(t, env.owner)
	draft, err := env.svc.CreateProperty(ctx, listing("Draft three bedroom house", 30000))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	all := property.Filter{}
	pendingOnly := property.Filter{Statuses: []property.Status{property.StatusPending}}
	mine := property.Filter{OwnerID: env.owner.ID}

	tests := []struct {
		name   string
		viewer *user.User
		filter property.Filter
		want   []int64
	}{
		{"anonymous", nil, all, []int64{published.ID}},
		{"anonymous pending", nil, pendingOnly, []int64{}},
		{"seeker", env.seeker, all, []int64{published.ID}},
		{"owner own", env.owner, mine, []int64{published.ID, draft.ID}},
		{"other owner", env.other, mine, []int64{published.ID}},
		{"admin", env.admin, all, []int64{published.ID, draft.ID}},
		{"admin pending", env.admin, pendingOnly, []int64{draft.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.viewer == nil {
				if err := env.svc.Logout(ctx); err != nil {
					t.Fatal(err)
				}
			} else {
				env.as(t, tt.viewer)
			}

			got, err := env.svc.ListProperties(ctx, tt.filter, property.SortOldest)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if g := ids(got); !equalIDs(g, tt.want) {
				t.Errorf("ids = %v, want %v", g, tt.want)
			}
		})
	}
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGetProperty(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)

	env.as(t, env.seeker)
	for range 2 {
		if _, err := env.svc.GetProperty(ctx, p.ID); err != nil {
			t.Fatalf("get: %v", err)
		}
	}

	env.as(t, env.owner)
	got, err := env.svc.GetProperty(ctx, p.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.Views != 2 {
		t.Errorf("views = %d, want 2 (owner views not counted)", got.Views)
	}

	env.as(t, env.seeker)
	viewed, err := env.svc.Viewed(ctx)
	if err != nil {
		t.Fatalf("viewed: %v", err)
	}
	if !equalIDs(ids(viewed), []int64{p.ID}) {
		t.Errorf("viewed = %v", ids(viewed))
	}

	if err := env.svc.ClearViewed(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if viewed, _ := env.svc.Viewed(ctx); len(viewed) != 0 {
		t.Errorf("viewed after clear = %v", ids(viewed))
	}
}

func TestGetPropertyHidesPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.as(t, env.owner)
	p, err := env.svc.CreateProperty(ctx, listing("Draft three bedroom house", 30000))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	env.as(t, env.seeker)
	if _, err := env.svc.GetProperty(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("seeker err = %v, want ErrNotFound", err)
	}

	env.as(t, env.admin)
	if _, err := env.svc.GetProperty(ctx, p.ID); err != nil {
		t.Errorf("admin get: %v", err)
	}
}

func TestCreatePropertyRequiresOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.svc.CreateProperty(ctx, listing("Anonymous listing here", 1000)); !errors.Is(err, apperr.ErrNotLoggedIn) {
		t.Errorf("anonymous err = %v, want ErrNotLoggedIn", err)
	}

	env.as(t, env.seeker)
	if _, err := env.svc.CreateProperty(ctx, listing("Seeker listing here", 1000)); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("seeker err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.owner)
	bad := listing("short", 0)
	_, err := env.svc.CreateProperty(ctx, bad)
	fields := apperr.FieldErrors(err)
	if fields["title"] == "" || fields["rent"] == "" {
		t.Errorf("field errors = %v", fields)
	}
}

func TestUpdateProperty(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)

	rent := int64(22000)
	env.as(t, env.other)
	if _, err := env.svc.UpdateProperty(ctx, p.ID, property.Patch{Rent: &rent}); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("other owner err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.owner)
	featured := true
	if _, err := env.svc.UpdateProperty(ctx, p.ID, property.Patch{Featured: &featured}); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("featured patch err = %v, want ErrAccessDenied", err)
	}

	updated, err := env.svc.UpdateProperty(ctx, p.ID, property.Patch{Rent: &rent})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Rent != 22000 || updated.Status != property.StatusActive {
		t.Errorf("updated = rent %d status %q", updated.Rent, updated.Status)
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) {
		t.Error("expected updatedAt to advance")
	}
}

func TestSetPropertyStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.as(t, env.owner)
	p, err := env.svc.CreateProperty(ctx, listing("Draft three bedroom house", 30000))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.SetPropertyStatus(ctx, p.ID, property.StatusActive); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("owner self-approve err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.admin)
	if _, err := env.svc.SetPropertyStatus(ctx, p.ID, "approved"); err != nil {
		t.Fatalf("admin approve by alias: %v", err)
	}

	env.as(t, env.owner)
	got, err := env.svc.SetPropertyStatus(ctx, p.ID, property.StatusRented)
	if err != nil {
		t.Fatalf("owner mark rented: %v", err)
	}
	if got.Status != property.StatusRented {
		t.Errorf("status = %q", got.Status)
	}
	if _, err := env.svc.SetPropertyStatus(ctx, p.ID, property.StatusPending); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("owner set pending err = %v, want ErrAccessDenied", err)
	}
	if _, err := env.svc.SetPropertyStatus(ctx, p.ID, "sold"); apperr.FieldErrors(err)["status"] == "" {
		t.Errorf("unknown status err = %v, want field error", err)
	}

	env.as(t, env.other)
	if _, err := env.svc.SetPropertyStatus(ctx, p.ID, property.StatusInactive); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("other owner err = %v, want ErrAccessDenied", err)
	}
}

func TestTogglePropertyStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.as(t, env.owner)
	draft, err := env.svc.CreateProperty(ctx, listing("Draft three bedroom house", 30000))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.TogglePropertyStatus(ctx, draft.ID); apperr.FieldErrors(err)["status"] == "" {
		t.Fatalf("toggle pending err = %v, want status field error", err)
	}
	if got, _ := env.svc.Properties().FindByID(ctx, draft.ID); got.Status != property.StatusPending {
		t.Errorf("pending listing became %q", got.Status)
	}

	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	env.as(t, env.owner)
	got, err := env.svc.TogglePropertyStatus(ctx, p.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got.Status != property.StatusInactive {
		t.Errorf("status = %q, want inactive", got.Status)
	}
	if n := env.lastNote(); n.msg != "Property inactive" {
		t.Errorf("note = %+v", n)
	}
	if got, err = env.svc.TogglePropertyStatus(ctx, p.ID); err != nil || got.Status != property.StatusActive {
		t.Errorf("toggle back = %v, %v", got, err)
	}

	env.as(t, env.other)
	if _, err := env.svc.TogglePropertyStatus(ctx, p.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("other owner err = %v, want ErrAccessDenied", err)
	}
	env.as(t, env.seeker)
	if _, err := env.svc.TogglePropertyStatus(ctx, p.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("seeker err = %v, want ErrAccessDenied", err)
	}
}

func TestToggleFeatured(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)

	got, err := env.svc.ToggleFeatured(ctx, p.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !got.Featured {
		t.Error("expected featured")
	}

	featured, err := env.svc.FeaturedProperties(ctx, 0)
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if !equalIDs(ids(featured), []int64{p.ID}) {
		t.Errorf("featured = %v", ids(featured))
	}

	env.as(t, env.owner)
	if _, err := env.svc.ToggleFeatured(ctx, p.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("owner err = %v, want ErrAccessDenied", err)
	}
}

func TestAddReview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)

	env.as(t, env.seeker)
	if _, err := env.svc.AddReview(ctx, p.ID, 4, "Nice"); err != nil {
		t.Fatalf("review: %v", err)
	}
	got, err := env.svc.AddReview(ctx, p.ID, 5, "Great")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Rating != 4.5 || len(got.Reviews) != 2 {
		t.Errorf("rating = %v reviews = %d", got.Rating, len(got.Reviews))
	}
	if got.Reviews[0].UserName != "Jane Seeker" {
		t.Errorf("review author = %q", got.Reviews[0].UserName)
	}

	if _, err := env.svc.AddReview(ctx, p.ID, 6, ""); apperr.FieldErrors(err)["rating"] == "" {
		t.Errorf("out of range err = %v", err)
	}
}

func TestDeletePropertyCascade(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	keep := env.publish(t, env.owner, "Another lovely two bedroom", 21000)

	env.as(t, env.seeker)
	for _, id := range []int64{p.ID, keep.ID} {
		if _, err := env.svc.GetProperty(ctx, id); err != nil {
			t.Fatal(err)
		}
		if _, err := env.svc.ToggleFavorite(ctx, id); err != nil {
			t.Fatal(err)
		}
		if _, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: id, Message: "Still free?"}); err != nil {
			t.Fatal(err)
		}
	}

	env.as(t, env.other)
	if err := env.svc.DeleteProperty(ctx, p.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("other owner delete err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.owner)
	if err := env.svc.DeleteProperty(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	env.as(t, env.seeker)
	favs, _ := env.svc.Favorites(ctx)
	viewed, _ := env.svc.Viewed(ctx)
	inqs, _ := env.svc.ListInquiries(ctx, InquiryScope{})
	if !equalIDs(ids(favs), []int64{keep.ID}) {
		t.Errorf("favorites = %v", ids(favs))
	}
	if !equalIDs(ids(viewed), []int64{keep.ID}) {
		t.Errorf("viewed = %v", ids(viewed))
	}
	if len(inqs) != 1 || inqs[0].PropertyID != keep.ID {
		t.Errorf("inquiries = %+v", inqs)
	}

	env.as(t, env.admin)
	if err := env.svc.DeleteProperty(ctx, keep.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
	if err := env.svc.DeleteProperty(ctx, keep.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestCreateInquiryEmailsOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)

	env.as(t, env.seeker)
	q, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: p.ID, Message: "Is parking included?"})
	if err != nil {
		t.Fatalf("inquiry: %v", err)
	}

	if q.Status != inquiry.StatusSent {
		t.Errorf("status = %q, want sent", q.Status)
	}
	if q.Name != "Jane Seeker" || q.Email != "seeker@test.com" || q.OwnerID != env.owner.ID {
		t.Errorf("inquiry = %+v", q)
	}
	if q.PropertyTitle != p.Title {
		t.Errorf("propertyTitle = %q", q.PropertyTitle)
	}

	if len(env.mail) != 1 {
		t.Fatalf("mail = %d, want 1", len(env.mail))
	}
	if m := env.mail[0]; m.To[0] != "owner@test.com" || m.ReplyTo != "seeker@test.com" {
		t.Errorf("mail = %+v", m)
	}
	if n := env.lastNote(); n.msg != "Inquiry sent successfully" {
		t.Errorf("note = %+v", n)
	}
}

func TestCreateInquiryLoggedMailStaysNew(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	env.mailErr = notify.ErrNotDelivered

	env.as(t, env.seeker)
	q, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: p.ID, Message: "Is parking included?"})
	if err != nil {
		t.Fatalf("inquiry: %v", err)
	}
	if q.Status != inquiry.StatusNew {
		t.Errorf("status = %q, want new", q.Status)
	}
	for _, n := range env.notes {
		if n.level == notify.LevelError {
			t.Errorf("unexpected error note %q", n.msg)
		}
	}
	if n := env.lastNote(); n.msg != "Inquiry saved" {
		t.Errorf("note = %+v", n)
	}
}

func TestCreateInquiryMailFailureKeepsInquiry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	env.mailErr = errors.New("relay down")

	env.as(t, env.seeker)
	q, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: p.ID, Message: "Hello", Phone: "+919876543210"})
	if err != nil {
		t.Fatalf("inquiry: %v", err)
	}
	if q.Status != inquiry.StatusNew {
		t.Errorf("status = %q, want new", q.Status)
	}
	if q.Phone != "+919876543210" {
		t.Errorf("phone = %q, want the given phone", q.Phone)
	}

	var sawError bool
	for _, n := range env.notes {
		if n.level == notify.LevelError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected an error notification")
	}
}

func TestCreateInquiryRules(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)

	env.as(t, env.owner)
	if _, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: p.ID, Message: "Hi"}); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("owner err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.seeker)
	if _, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: 999, Message: "Hi"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing property err = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: p.ID}); apperr.FieldErrors(err)["message"] == "" {
		t.Errorf("empty message err = %v", err)
	}
}

func TestRespondToInquiry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)

	env.as(t, env.seeker)
	q, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: p.ID, Message: "Pets allowed?"})
	if err != nil {
		t.Fatalf("inquiry: %v", err)
	}

	env.as(t, env.other)
	if _, err := env.svc.RespondToInquiry(ctx, q.ID, "No"); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("other owner err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.owner)
	got, err := env.svc.RespondToInquiry(ctx, q.ID, "Cats only.")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if got.Status != inquiry.StatusResponded || got.Reply != "Cats only." || got.RespondedAt == nil {
		t.Errorf("inquiry = %+v", got)
	}

	last := env.mail[len(env.mail)-1]
	if last.To[0] != "seeker@test.com" || last.Subject != "Response: "+p.Title {
		t.Errorf("response mail = %+v", last)
	}

	env.as(t, env.seeker)
	st, err := env.svc.SeekerStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Inquiries != 1 || st.Answered != 1 {
		t.Errorf("seeker stats = %+v", st)
	}
}

func TestListInquiriesScopes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mine := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	theirs := env.publish(t, env.other, "Olga's lovely studio room", 9000)

	env.as(t, env.seeker)
	for _, id := range []int64{mine.ID, theirs.ID} {
		if _, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: id, Message: "Hi"}); err != nil {
			t.Fatal(err)
		}
	}

	count := func(t *testing.T, scope InquiryScope) int {
		t.Helper()
		inqs, err := env.svc.ListInquiries(ctx, scope)
		if err != nil {
			t.Fatalf("list %+v: %v", scope, err)
		}
		return len(inqs)
	}

	if n := count(t, InquiryScope{}); n != 2 {
		t.Errorf("seeker sent = %d, want 2", n)
	}
	if _, err := env.svc.ListInquiries(ctx, InquiryScope{All: true}); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("seeker all err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.owner)
	if n := count(t, InquiryScope{}); n != 1 {
		t.Errorf("owner received = %d, want 1", n)
	}
	if n := count(t, InquiryScope{PropertyID: mine.ID}); n != 1 {
		t.Errorf("owner by property = %d, want 1", n)
	}
	if _, err := env.svc.ListInquiries(ctx, InquiryScope{PropertyID: theirs.ID}); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("foreign property err = %v, want ErrAccessDenied", err)
	}

	env.as(t, env.admin)
	if n := count(t, InquiryScope{}); n != 2 {
		t.Errorf("admin all = %d, want 2", n)
	}
	if n := count(t, InquiryScope{PropertyID: theirs.ID}); n != 1 {
		t.Errorf("admin by property = %d, want 1", n)
	}
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, env.owner, "Published two bedroom flat", 20000)

	env.as(t, env.seeker)
	saved, err := env.svc.ToggleFavorite(ctx, p.ID)
	if err != nil || !saved {
		t.Fatalf("toggle = %v, %v", saved, err)
	}
	if ok, _ := env.svc.IsFavorite(ctx, p.ID); !ok {
		t.Error("expected favorite")
	}
	if n := env.lastNote(); n.msg != "Added to favorites" {
		t.Errorf("note = %+v", n)
	}

	saved, err = env.svc.ToggleFavorite(ctx, p.ID)
	if err != nil || saved {
		t.Fatalf("second toggle = %v, %v", saved, err)
	}
	if ok, _ := env.svc.IsFavorite(ctx, p.ID); ok {
		t.Error("expected not favorite")
	}

	if _, err := env.svc.ToggleFavorite(ctx, 404); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing property err = %v, want ErrNotFound", err)
	}

	env.as(t, env.owner)
	if ok, err := env.svc.IsFavorite(ctx, p.ID); ok || err != nil {
		t.Errorf("owner IsFavorite = %v, %v", ok, err)
	}
	if _, err := env.svc.ToggleFavorite(ctx, p.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("owner toggle err = %v, want ErrAccessDenied", err)
	}
}

func TestRecommendations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seen := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	similar := env.publish(t, env.owner, "Similar two bedroom flat", 21000)
	pricey := env.publish(t, env.other, "Expensive penthouse suite", 90000)

	env.as(t, env.seeker)
	if _, err := env.svc.GetProperty(ctx, seen.ID); err != nil {
		t.Fatal(err)
	}

	recs, err := env.svc.Recommendations(ctx, 0)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !equalIDs(ids(recs), []int64{similar.ID, pricey.ID}) {
		t.Errorf("recommendations = %v, want [%d %d]", ids(recs), similar.ID, pricey.ID)
	}
}

func TestOwnerStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	rented := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	env.publish(t, env.owner, "Another lovely two bedroom", 15000)
	env.publish(t, env.other, "Olga's lovely studio room", 9000)

	env.as(t, env.owner)
	st, err := env.svc.OwnerStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 2 || st.TotalRevenue != 0 {
		t.Errorf("before rent: %+v", st)
	}

	if _, err := env.svc.SetPropertyStatus(ctx, rented.ID, property.StatusRented); err != nil {
		t.Fatal(err)
	}
	st, _ = env.svc.OwnerStats(ctx)
	if st.TotalRevenue != 20000 || st.Rented != 1 || st.Available != 1 {
		t.Errorf("after rent: %+v", st)
	}

	top, err := env.svc.TopProperties(ctx, 1)
	if err != nil || len(top) != 1 {
		t.Errorf("top = %v, %v", ids(top), err)
	}

	if _, err := env.svc.AdminStats(ctx); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("owner admin stats err = %v", err)
	}
}

func TestAdminStatsAndActivity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.publish(t, env.owner, "Published two bedroom flat", 20000)

	st, err := env.svc.AdminStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Users != 4 || st.Owners != 2 || st.Seekers != 1 || st.Admins != 1 {
		t.Errorf("user counts = %+v", st)
	}
	if st.Properties.Active != 1 {
		t.Errorf("property counts = %+v", st.Properties)
	}

	feed, err := env.svc.RecentActivity(ctx, 0)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(feed) != 5 {
		t.Errorf("feed = %d entries, want 5", len(feed))
	}

	market, err := env.svc.Market(ctx)
	if err != nil {
		t.Fatalf("market: %v", err)
	}
	if market.Listings != 1 || market.Rent.Min != 20000 || market.ByCity[0].Name != "Surat" {
		t.Errorf("market = %+v", market)
	}
}

func TestDeleteUserCascadeScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doomed := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	survivor := env.publish(t, env.other, "Olga's lovely studio room", 9000)

	env.as(t, env.seeker)
	for _, id := range []int64{doomed.ID, survivor.ID} {
		if _, err := env.svc.ToggleFavorite(ctx, id); err != nil {
			t.Fatal(err)
		}
		if _, err := env.svc.CreateInquiry(ctx, InquiryInput{PropertyID: id, Message: "Hi"}); err != nil {
			t.Fatal(err)
		}
	}

	env.as(t, env.admin)
	if err := env.svc.DeleteUser(ctx, env.admin.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("self delete err = %v, want ErrAccessDenied", err)
	}
	if err := env.svc.DeleteUser(ctx, env.owner.ID); err != nil {
		t.Fatalf("delete owner: %v", err)
	}

	if _, err := env.svc.Users().FindByID(ctx, env.owner.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("owner still present: %v", err)
	}
	left, err := env.svc.Properties().ListByOwner(ctx, env.owner.ID)
	if err != nil || len(left) != 0 {
		t.Errorf("owner properties = %v, %v", ids(left), err)
	}
	inqs, _ := env.svc.ListInquiries(ctx, InquiryScope{All: true})
	if len(inqs) != 1 || inqs[0].PropertyID != survivor.ID {
		t.Errorf("inquiries = %+v", inqs)
	}

	if err := env.svc.DeleteUser(ctx, env.seeker.ID); err != nil {
		t.Fatalf("delete seeker: %v", err)
	}
	raw, _, _ := env.store.Get(ctx, "favorites")
	if strings.Contains(string(raw), `"userId"`) {
		t.Errorf("favorites left after seeker delete: %s", raw)
	}
}

func TestSetUserStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.as(t, env.admin)

	if _, err := env.svc.SetUserStatus(ctx, env.admin.ID, user.StatusSuspended); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("self suspend err = %v, want ErrAccessDenied", err)
	}
	pub, err := env.svc.SetUserStatus(ctx, env.seeker.ID, user.StatusSuspended)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if pub.Status != user.StatusSuspended {
		t.Errorf("status = %q", pub.Status)
	}
	if n := env.lastNote(); n.msg != "User suspended" {
		t.Errorf("note = %+v", n)
	}

	if _, err := env.svc.Login(ctx, env.seeker.Email, password, true); !errors.Is(err, auth.ErrSuspended) {
		t.Errorf("login err = %v, want ErrSuspended", err)
	}
}

func TestSuspendedSessionIsDropped(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.as(t, env.seeker)

	if _, err := env.svc.Users().SetStatus(ctx, env.seeker.ID, user.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if cur, _ := env.svc.CurrentUser(ctx); cur != nil {
		t.Errorf("suspended session = %+v", cur)
	}
	if _, err := env.svc.Favorites(ctx); !errors.Is(err, apperr.ErrNotLoggedIn) {
		t.Errorf("err = %v, want ErrNotLoggedIn", err)
	}
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.as(t, env.admin)

	found, err := env.svc.SearchUsers(ctx, "owner")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("found = %d, want 2", len(found))
	}

	all, err := env.svc.ListUsers(ctx)
	if err != nil || len(all) != 4 {
		t.Errorf("list = %d, %v", len(all), err)
	}
}

func TestExportCollection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.publish(t, env.owner, "Published two bedroom flat", 20000)

	data, err := env.svc.ExportCollection(ctx, EntityUsers)
	if err != nil {
		t.Fatalf("export users: %v", err)
	}
	if strings.Contains(string(data), "password") || strings.Contains(string(data), "$2a$") {
		t.Errorf("user export leaks passwords: %s", data)
	}
	var users []user.Public
	if err := json.Unmarshal(data, &users); err != nil || len(users) != 4 {
		t.Errorf("users = %d, %v", len(users), err)
	}

	data, err = env.svc.ExportCollection(ctx, EntityProperties)
	if err != nil {
		t.Fatalf("export properties: %v", err)
	}
	if !strings.Contains(string(data), "\n  {") {
		t.Errorf("expected indented JSON, got %s", data)
	}

	data, err = env.svc.ExportCollection(ctx, EntityFavorites)
	if err != nil || string(data) != "[]" {
		t.Errorf("empty favorites export = %q, %v", data, err)
	}

	if _, err := env.svc.ExportCollection(ctx, "payments"); apperr.FieldErrors(err)["entity"] == "" {
		t.Errorf("unknown entity err = %v", err)
	}

	env.as(t, env.owner)
	if _, err := env.svc.ExportCollection(ctx, EntityProperties); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("owner export err = %v, want ErrAccessDenied", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	name := "Anon"
	if _, err := env.svc.UpdateProfile(ctx, ProfilePatch{Name: &name}); !errors.Is(err, apperr.ErrNotLoggedIn) {
		t.Errorf("anonymous err = %v, want ErrNotLoggedIn", err)
	}

	env.as(t, env.seeker)
	name = "Jane Q. Seeker"
	if _, err := env.svc.UpdateProfile(ctx, ProfilePatch{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	cur, _ := env.svc.CurrentUser(ctx)
	if cur == nil || cur.Name != "Jane Q. Seeker" {
		t.Errorf("session = %+v", cur)
	}
}

func TestCompareProperties(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.publish(t, env.owner, "Published two bedroom flat", 20000)
	b := env.publish(t, env.owner, "Another lovely two bedroom", 21000)

	env.as(t, env.owner)
	draft, err := env.svc.CreateProperty(ctx, listing("Draft three bedroom house", 30000))
	if err != nil {
		t.Fatal(err)
	}

	env.as(t, env.seeker)
	got, err := env.svc.CompareProperties(ctx, []int64{b.ID, draft.ID, 999, a.ID})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !equalIDs(ids(got), []int64{b.ID, a.ID}) {
		t.Errorf("compare = %v", ids(got))
	}
}
