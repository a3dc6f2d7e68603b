package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxChirpLength = 255

// Chirp is a short message owned by exactly one user.
type Chirp struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Message   string    `gorm:"type:varchar(255);not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalizeChirpMessage trims surrounding whitespace and reports whether the
// result is within 1..MaxChirpLength characters.
func NormalizeChirpMessage(message string) (string, bool) {
	trimmed := strings.TrimSpace(message)
	n := utf8.RuneCountInString(trimmed)
	return trimmed, n > 0 && n <= MaxChirpLength
}

// IsOwnedBy reports whether the chirp belongs to the given user.
func (ch *Chirp) IsOwnedBy(userID uint) bool {
	return userID != 0 && ch.UserID == userID
}
