package repository

import (
	"time"

	"github.com/ManuelReschke/Chirper/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	CreateWithProvider(user *models.User, provider, providerUserID string) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByProvider(provider, providerUserID string) (*models.User, error)
	LinkProvider(user *models.User, provider, providerUserID string, linkedAt time.Time) error
	MarkEmailVerified(id uint, at time.Time) (bool, error)
	UpdateRememberToken(id uint, hash string) error
	Update(user *models.User) error
}

// TokenRepository defines the interface for access token persistence
type TokenRepository interface {
	Create(token *models.Token) error
	GetByHash(hash string) (*models.Token, error)
	DeleteByUserID(userID uint) (int64, error)
	DeleteExpired(before time.Time) (int64, error)
	CountByUserID(userID uint) (int64, error)
}

// ChirpRepository defines the interface for chirp-related database operations
type ChirpRepository interface {
	Create(chirp *models.Chirp) error
	GetByID(id uint) (*models.Chirp, error)
	UpdateMessage(chirp *models.Chirp, message string) error
	Delete(id uint) error
	Latest(limit int) ([]models.Chirp, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User  UserRepository
	Token TokenRepository
	Chirp ChirpRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:  NewUserRepository(db),
		Token: NewTokenRepository(db),
		Chirp: NewChirpRepository(db),
	}
}
