// Package tokens issues and validates the bearer tokens used by the JSON API.
package tokens

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
)

const (
	TokenType = "Bearer"
	// ExpiresIn is the token lifetime in seconds as reported to clients.
	ExpiresIn = int(models.TokenLifetime / time.Second)
)

// Issued is a freshly minted token. PlainText is never stored.
type Issued struct {
	PlainText string
	ExpiresAt time.Time
}

type Service struct {
	tokens repository.TokenRepository
	users  repository.UserRepository
	now    func() time.Time
}

func NewService(tokens repository.TokenRepository, users repository.UserRepository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{tokens: tokens, users: users, now: now}
}

// Issue creates a new token for the user. Existing tokens stay valid.
func (s *Service) Issue(user *models.User) (*Issued, error) {
	token, secret, err := models.NewToken(user.ID, s.now())
	if err != nil {
		return nil, apperror.Internal("failed to generate token", err)
	}
	if err := s.tokens.Create(token); err != nil {
		return nil, apperror.Internal("failed to store token", err)
	}
	return &Issued{PlainText: token.PlainText(secret), ExpiresAt: token.ExpiresAt}, nil
}

// Validate resolves the owner of a presented bearer value. Unknown, malformed,
// expired and mismatched tokens all fail as unauthenticated.
func (s *Service) Validate(plain string) (*models.User, *models.Token, error) {
	id, secret, err := models.ParsePlainToken(plain)
	if err != nil {
		return nil, nil, apperror.Unauthenticated()
	}

	token, err := s.tokens.GetByHash(models.HashToken(secret))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperror.Unauthenticated()
	}
	if err != nil {
		return nil, nil, apperror.Internal("failed to look up token", err)
	}
	if id != 0 && token.ID != id {
		return nil, nil, apperror.Unauthenticated()
	}
	if token.IsExpired(s.now()) {
		return nil, nil, apperror.Unauthenticated()
	}

	user, err := s.users.GetByID(token.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperror.Unauthenticated()
	}
	if err != nil {
		return nil, nil, apperror.Internal("failed to load token owner", err)
	}
	return user, token, nil
}

// RevokeAll deletes every token of the user. Revoking with nothing left is not an error.
func (s *Service) RevokeAll(user *models.User) error {
	n, err := s.tokens.DeleteByUserID(user.ID)
	if err != nil {
		return apperror.Internal("failed to revoke tokens", err)
	}
	log.Debugw("revoked access tokens", "user_id", user.ID, "count", n)
	return nil
}

// Refresh revokes all tokens of the user and issues a new one. If issuing
// fails after the revoke, the user is left without a token and must log in again.
func (s *Service) Refresh(user *models.User) (*Issued, error) {
	if err := s.RevokeAll(user); err != nil {
		return nil, err
	}
	return s.Issue(user)
}

// PruneExpired removes tokens whose lifetime has run out.
func (s *Service) PruneExpired() (int64, error) {
	return s.tokens.DeleteExpired(s.now())
}
