package repository

import (
	"github.com/ManuelReschke/Chirper/app/models"
	"gorm.io/gorm"
)

// chirpRepository implements the ChirpRepository interface
type chirpRepository struct {
	db *gorm.DB
}

// NewChirpRepository creates a new chirp repository instance
func NewChirpRepository(db *gorm.DB) ChirpRepository {
	return &chirpRepository{db: db}
}

// Create creates a new chirp in the database
func (r *chirpRepository) Create(chirp *models.Chirp) error {
	return r.db.Create(chirp).Error
}

// GetByID retrieves a chirp with its author
func (r *chirpRepository) GetByID(id uint) (*models.Chirp, error) {
	var chirp models.Chirp
	err := r.db.Preload("User").First(&chirp, id).Error
	if err != nil {
		return nil, err
	}
	return &chirp, nil
}

// UpdateMessage changes only the message column; the owner is never rewritten
func (r *chirpRepository) UpdateMessage(chirp *models.Chirp, message string) error {
	if err := r.db.Model(chirp).Update("message", message).Error; err != nil {
		return err
	}
	chirp.Message = message
	return nil
}

// Delete permanently removes a chirp by its ID
func (r *chirpRepository) Delete(id uint) error {
	return r.db.Delete(&models.Chirp{}, id).Error
}

// Latest retrieves the newest chirps with their authors loaded in one extra query
func (r *chirpRepository) Latest(limit int) ([]models.Chirp, error) {
	var chirps []models.Chirp
	err := r.db.Preload("User").Order("created_at DESC").Order("id DESC").Limit(limit).Find(&chirps).Error
	return chirps, err
}
