package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evcraddock/rental-bridge/internal/apperr"
	"github.com/evcraddock/rental-bridge/internal/email"
	"github.com/evcraddock/rental-bridge/internal/inquiry"
	"github.com/evcraddock/rental-bridge/internal/notify"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// InquiryScope selects which inquiries ListInquiries returns. The zero
// value selects the caller's own: sent ones for a seeker, received ones for
// an owner.
type InquiryScope struct {
	// PropertyID restricts the result to one listing, which an owner must own.
	PropertyID int64

	// All selects every inquiry. Admin only.
	All bool
}

// ListInquiries returns the inquiries in scope.
func (s *Service) ListInquiries(ctx context.Context, scope InquiryScope) ([]*inquiry.Inquiry, error) {
	sess, err := s.auth.RequireRole(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case scope.PropertyID != 0:
		if sess.Role != user.RoleAdmin {
			if _, err := s.ownListing(ctx, scope.PropertyID); err != nil {
				return nil, err
			}
		}
		return s.inquiries.ByProperty(ctx, scope.PropertyID)
	case scope.All || sess.Role == user.RoleAdmin:
		if sess.Role != user.RoleAdmin {
			return nil, fmt.Errorf("listing all inquiries: %w", apperr.ErrAccessDenied)
		}
		return s.inquiries.List(ctx)
	case sess.Role == user.RoleOwner:
		return s.inquiries.ByOwner(ctx, sess.ID)
	default:
		return s.inquiries.BySeeker(ctx, sess.ID)
	}
}

// InquiryInput is a seeker's message about a listing. Empty contact fields
// are taken from the seeker's account.
type InquiryInput struct {
	PropertyID int64
	Message    string
	Name       string
	Email      string
	Phone      string
}

// CreateInquiry records an inquiry from the current seeker and emails the
// listing's owner. A failed email is reported through the notifier; the
// inquiry is kept with status new.
func (s *Service) CreateInquiry(ctx context.Context, in InquiryInput) (*inquiry.Inquiry, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleSeeker)
	if err != nil {
		return nil, err
	}

	p, err := s.props.FindByID(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if !visible(sess, p) {
		return nil, apperr.NotFound("property", in.PropertyID)
	}

	q, err := s.inquiries.Create(ctx, inquiry.Input{
		PropertyID:    p.ID,
		PropertyTitle: p.Title,
		SeekerID:      sess.ID,
		Name:          orDefault(in.Name, sess.Name),
		Email:         orDefault(in.Email, sess.Email),
		Phone:         orDefault(in.Phone, sess.Phone),
		OwnerID:       p.OwnerID,
		OwnerName:     p.OwnerName,
		OwnerEmail:    p.OwnerEmail,
		Message:       in.Message,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("inquiry created", "inquiry_id", q.ID, "property_id", p.ID, "seeker_id", sess.ID)

	if !s.mail(ctx, email.InquiryMessage(q, p)) {
		s.notifier.Notify(ctx, notify.LevelSuccess, "Inquiry saved")
		return q, nil
	}

	sent, err := s.inquiries.SetStatus(ctx, q.ID, inquiry.StatusSent)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notify.LevelSuccess, "Inquiry sent successfully")
	return sent, nil
}

// RespondToInquiry stores the current owner's reply and emails it to the
// seeker.
func (s *Service) RespondToInquiry(ctx context.Context, id int64, reply string) (*inquiry.Inquiry, error) {
	sess, err := s.auth.RequireRole(ctx, user.RoleOwner)
	if err != nil {
		return nil, err
	}

	q, err := s.inquiries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != sess.ID {
		return nil, fmt.Errorf("inquiry %d is for another owner: %w", id, apperr.ErrAccessDenied)
	}

	q, err = s.inquiries.Respond(ctx, id, reply)
	if err != nil {
		return nil, err
	}
	slog.Info("inquiry answered", "inquiry_id", id, "owner_id", sess.ID)

	s.mail(ctx, email.ResponseMessage(q, q.Reply))
	s.notifier.Notify(ctx, notify.LevelSuccess, "Response sent")
	return q, nil
}

// mail sends msg when a mailer is configured and reports whether it went
// out. A mailer that only logs counts as not sent. Failures are logged and
// notified but never returned.
func (s *Service) mail(ctx context.Context, msg email.Message) bool {
	if s.mailer == nil {
		return false
	}
	err := s.mailer.Send(ctx, msg)
	if errors.Is(err, notify.ErrNotDelivered) {
		return false
	}
	if err != nil {
		slog.Warn("sending email", "subject", msg.Subject, "error", err)
		s.notifier.Notify(ctx, notify.LevelError, "Email could not be sent")
		return false
	}
	return true
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
