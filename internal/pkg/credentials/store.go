// Package credentials owns user records and password checks.
package credentials

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
)

// RegisterInput is the payload accepted by Create.
type RegisterInput struct {
	Name                 string `json:"name" form:"name" validate:"required,max=255"`
	Email                string `json:"email" form:"email" validate:"required,email,max=255"`
	Password             string `json:"password" form:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"eqfield=Password"`
}

// LoginInput is the payload accepted by the login endpoints.
type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	Remember bool   `json:"remember" form:"remember"`
}

const msgEmailTaken = "The email has already been taken."

type Store struct {
	users    repository.UserRepository
	validate *validator.Validate
}

func NewStore(users repository.UserRepository, validate *validator.Validate) *Store {
	if validate == nil {
		validate = validator.New()
	}
	return &Store{users: users, validate: validate}
}

// Validate runs the struct tag rules and returns a classified error.
func (s *Store) Validate(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return apperror.FromValidator(err)
	}
	return nil
}

// Create registers a new unverified user with a hashed password.
func (s *Store) Create(in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(in.Email); err == nil {
		return nil, apperror.Validation("email", msgEmailTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("failed to look up email", err)
	}

	user, err := models.NewUser(in.Name, in.Email, in.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	if err := s.users.Create(user); err != nil {
		// a concurrent registration can still win the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Validation("email", msgEmailTaken)
		}
		return nil, apperror.Internal("failed to create user", err)
	}
	return user, nil
}

// FindByEmail returns the user for the address, nil when none exists.
func (s *Store) FindByEmail(email string) (*models.User, error) {
	user, err := s.users.GetByEmail(models.NormalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal("failed to look up user", err)
	}
	return user, nil
}

// FindByID returns the user with the given id, nil when none exists.
func (s *Store) FindByID(id uint) (*models.User, error) {
	user, err := s.users.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	return user, nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (s *Store) VerifyPassword(user *models.User, password string) bool {
	return user != nil && user.CheckPassword(password)
}

// CheckCredentials resolves the user for a login attempt. Unknown email and
// wrong password produce the same error.
func (s *Store) CheckCredentials(email, password string) (*models.User, error) {
	user, err := s.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if !s.VerifyPassword(user, password) {
		return nil, apperror.InvalidCredentials()
	}
	return user, nil
}
