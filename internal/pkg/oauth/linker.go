package oauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/markbates/goth"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
)

// Identity is the part of a provider profile used to find a local account.
type Identity struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	NickName       string
}

func IdentityFromGoth(u goth.User) Identity {
	return Identity{
		Provider:       u.Provider,
		ProviderUserID: u.UserID,
		Email:          u.Email,
		Name:           u.Name,
		NickName:       u.NickName,
	}
}

// Outcome tells which branch Resolve took.
type Outcome int

const (
	OutcomeExisting Outcome = iota
	OutcomeLinked
	OutcomeCreated
)

// Linker maps provider identities onto local users.
type Linker struct {
	users repository.UserRepository
	now   func() time.Time
}

func NewLinker(users repository.UserRepository, now func() time.Time) *Linker {
	if now == nil {
		now = time.Now
	}
	return &Linker{users: users, now: now}
}

// Resolve returns the local user for id. A known external id wins. Otherwise
// an account with the same email gets the identity attached, and failing that
// a new verified user is created. The email match trusts the provider to have
// confirmed the address.
func (l *Linker) Resolve(id Identity) (*models.User, Outcome, error) {
	if id.Provider == "" || id.ProviderUserID == "" {
		return nil, 0, apperror.Validation("provider", "The provider identity is incomplete.")
	}

	user, err := l.users.GetByProvider(id.Provider, id.ProviderUserID)
	if err == nil {
		return user, OutcomeExisting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, apperror.Internal("failed to look up provider account", err)
	}

	email := id.Email
	if email == "" {
		email = fmt.Sprintf("%s_%s@%s.oauth.local", id.Provider, id.ProviderUserID, id.Provider)
	}

	user, err = l.users.GetByEmail(email)
	if err == nil {
		if err := l.users.LinkProvider(user, id.Provider, id.ProviderUserID, l.now()); err != nil {
			return nil, 0, apperror.Internal("failed to link provider account", err)
		}
		log.Infow("linked provider account", "user_id", user.ID, "provider", id.Provider)
		return user, OutcomeLinked, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, apperror.Internal("failed to look up user", err)
	}

	user, err = models.NewOAuthUser(displayName(id, email), email, id.Provider, l.now())
	if err != nil {
		return nil, 0, apperror.Internal("failed to prepare user", err)
	}
	if err := l.users.CreateWithProvider(user, id.Provider, id.ProviderUserID); err != nil {
		return nil, 0, apperror.Internal("failed to create user", err)
	}
	log.Infow("created user from provider account", "user_id", user.ID, "provider", id.Provider)
	return user, OutcomeCreated, nil
}

// SuccessMessage is the flash text shown after a provider login.
func SuccessMessage(provider string, o Outcome) string {
	name := ProviderLabel(provider)
	switch o {
	case OutcomeLinked:
		return name + " account linked to your existing account"
	case OutcomeCreated:
		return "Welcome! Logged in via " + name
	default:
		return "Logged in via " + name
	}
}

// ProviderLabel returns the display name of a provider.
func ProviderLabel(provider string) string {
	switch provider {
	case "github":
		return "GitHub"
	case "":
		return ""
	default:
		return strings.ToUpper(provider[:1]) + provider[1:]
	}
}

func displayName(id Identity, email string) string {
	for _, v := range []string{id.Name, id.NickName} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return "User"
}
