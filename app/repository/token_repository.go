package repository

import (
	"time"

	"github.com/ManuelReschke/Chirper/app/models"
	"gorm.io/gorm"
)

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new access token repository instance
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *models.Token) error {
	return r.db.Create(token).Error
}

// GetByHash retrieves a token by the hash of its secret
func (r *tokenRepository) GetByHash(hash string) (*models.Token, error) {
	var token models.Token
	err := r.db.Where("token_hash = ?", hash).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteByUserID removes every token owned by the user. Deleting nothing is not an error.
func (r *tokenRepository) DeleteByUserID(userID uint) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&models.Token{})
	return res.RowsAffected, res.Error
}

// DeleteExpired prunes tokens whose lifetime ended before the given time
func (r *tokenRepository) DeleteExpired(before time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", before).Delete(&models.Token{})
	return res.RowsAffected, res.Error
}

func (r *tokenRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Token{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
