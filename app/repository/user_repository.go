package repository

import (
	"time"

	"github.com/ManuelReschke/Chirper/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateWithProvider creates the user and its provider identity in one transaction
func (r *userRepository) CreateWithProvider(user *models.User, provider, providerUserID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.ProviderAccount{
			UserID:         user.ID,
			Provider:       provider,
			ProviderUserID: providerUserID,
		}).Error
	})
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address (case-insensitive)
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByProvider resolves an external identity to its linked user
func (r *userRepository) GetByProvider(provider, providerUserID string) (*models.User, error) {
	var pa models.ProviderAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&pa).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(pa.UserID)
}

// LinkProvider attaches an external identity to an existing user
func (r *userRepository) LinkProvider(user *models.User, provider, providerUserID string, linkedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.ProviderAccount{
			UserID:         user.ID,
			Provider:       provider,
			ProviderUserID: providerUserID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"oauth_provider":  provider,
			"oauth_linked_at": linkedAt,
		}).Error; err != nil {
			return err
		}
		p := provider
		user.OAuthProvider = &p
		user.OAuthLinkedAt = &linkedAt
		return nil
	})
}

// MarkEmailVerified sets email_verified_at if it is still empty. It reports
// whether this call performed the transition.
func (r *userRepository) MarkEmailVerified(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND email_verified_at IS NULL", id).
		Update("email_verified_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateRememberToken replaces the stored remember-me token hash
func (r *userRepository) UpdateRememberToken(id uint, hash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("remember_token", hash).Error
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}
