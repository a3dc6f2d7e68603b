// Package verification gates actions behind a confirmed email address.
package verification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/events"
	"github.com/ManuelReschke/Chirper/internal/pkg/mail"
	"github.com/ManuelReschke/Chirper/internal/pkg/security"
)

// LinkLifetime is how long a verification link stays valid.
const LinkLifetime = 60 * time.Minute

type Service struct {
	users     repository.UserRepository
	signer    *security.Signer
	mailer    mail.Mailer
	publisher events.Publisher
	baseURL   string
	now       func() time.Time
}

func NewService(users repository.UserRepository, signer *security.Signer, mailer mail.Mailer, publisher events.Publisher, baseURL string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		users:     users,
		signer:    signer,
		mailer:    mailer,
		publisher: publisher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       now,
	}
}

// Path returns the unsigned verification path for a user id and email hash.
func Path(userID uint, hash string) string {
	return fmt.Sprintf("/email/verify/%d/%s", userID, hash)
}

// URL returns an absolute signed verification link for the user's current email.
func (s *Service) URL(user *models.User) string {
	return s.baseURL + s.signer.SignURL(Path(user.ID, user.EmailHash()), s.now().Add(LinkLifetime))
}

// CheckSignature validates the signature and expiry of a verification request path.
func (s *Service) CheckSignature(path, expires, signature string) (signatureValid, notExpired bool) {
	return s.signer.CheckURL(path, expires, signature, s.now())
}

// SendVerification mails a fresh link. Verified users get nothing.
func (s *Service) SendVerification(ctx context.Context, user *models.User) error {
	if user.IsVerified() {
		return nil
	}
	link := s.URL(user)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Verify Email Address",
		Body: fmt.Sprintf(
			`<p>Hello %s,</p><p>Please click the link below to verify your email address.</p><p><a href="%s">Verify Email Address</a></p><p>This link expires in %d minutes.</p>`,
			html.EscapeString(user.Name), html.EscapeString(link), int(LinkLifetime/time.Minute),
		),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperror.Internal("failed to send verification email", err)
	}
	return nil
}

// Verify marks the user verified when the link is intact and its hash matches
// the user's current email. It reports whether the user had already been verified.
func (s *Service) Verify(ctx context.Context, userID uint, hash string, signatureValid, notExpired bool) (bool, error) {
	if !signatureValid || !notExpired {
		return false, apperror.InvalidVerificationLink()
	}

	user, err := s.users.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperror.InvalidVerificationLink()
	}
	if err != nil {
		return false, apperror.Internal("failed to load user", err)
	}
	if !user.MatchesEmailHash(hash) {
		return false, apperror.InvalidVerificationLink()
	}
	if user.IsVerified() {
		return true, nil
	}

	now := s.now()
	changed, err := s.users.MarkEmailVerified(user.ID, now)
	if err != nil {
		return false, apperror.Internal("failed to mark email verified", err)
	}
	// a concurrent request already did it
	if !changed {
		return true, nil
	}

	e := events.Event{Type: events.TypeEmailVerified, UserID: user.ID, OccurredAt: now}
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Errorw("failed to publish verified event", "user_id", user.ID, "error", err)
	}
	return false, nil
}
