// Package chirps implements ownership-scoped chirp management.
package chirps

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
)

// TimelineLimit caps the number of chirps returned by Latest.
const TimelineLimit = 50

const msgInvalidMessage = "The message field is required and must not be greater than 255 characters."

// Input is the payload for create and update.
type Input struct {
	Message string `json:"message" form:"message"`
}

type Service struct {
	chirps repository.ChirpRepository
}

func NewService(chirps repository.ChirpRepository) *Service {
	return &Service{chirps: chirps}
}

func validMessage(raw string) (string, error) {
	msg, ok := models.NormalizeChirpMessage(raw)
	if !ok {
		return "", apperror.Validation("message", msgInvalidMessage)
	}
	return msg, nil
}

// Latest returns the newest chirps with their authors.
func (s *Service) Latest() ([]models.Chirp, error) {
	list, err := s.chirps.Latest(TimelineLimit)
	if err != nil {
		return nil, apperror.Internal("failed to load chirps", err)
	}
	return list, nil
}

// Create stores a chirp owned by user.
func (s *Service) Create(user *models.User, in Input) (*models.Chirp, error) {
	msg, err := validMessage(in.Message)
	if err != nil {
		return nil, err
	}
	chirp := &models.Chirp{UserID: user.ID, Message: msg}
	if err := s.chirps.Create(chirp); err != nil {
		return nil, apperror.Internal("failed to create chirp", err)
	}
	chirp.User = user
	return chirp, nil
}

// Get loads a chirp by id.
func (s *Service) Get(id uint) (*models.Chirp, error) {
	chirp, err := s.chirps.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Chirp")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load chirp", err)
	}
	return chirp, nil
}

// Edit loads a chirp for modification by user.
func (s *Service) Edit(user *models.User, id uint) (*models.Chirp, error) {
	chirp, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !chirp.IsOwnedBy(user.ID) {
		return nil, apperror.Forbidden("")
	}
	return chirp, nil
}

// Update replaces the message of a chirp owned by user.
func (s *Service) Update(user *models.User, id uint, in Input) (*models.Chirp, error) {
	chirp, err := s.Edit(user, id)
	if err != nil {
		return nil, err
	}
	msg, err := validMessage(in.Message)
	if err != nil {
		return nil, err
	}
	if err := s.chirps.UpdateMessage(chirp, msg); err != nil {
		return nil, apperror.Internal("failed to update chirp", err)
	}
	return chirp, nil
}

// Delete permanently removes a chirp owned by user.
func (s *Service) Delete(user *models.User, id uint) error {
	chirp, err := s.Edit(user, id)
	if err != nil {
		return err
	}
	if err := s.chirps.Delete(chirp.ID); err != nil {
		return apperror.Internal("failed to delete chirp", err)
	}
	return nil
}

// ParseID converts a route parameter into a chirp id. Anything that is not a
// positive integer cannot name a chirp.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound("Chirp")
	}
	return uint(id), nil
}
