package models

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"type:varchar(255)" json:"name"`
	Email           string     `gorm:"uniqueIndex;type:varchar(255)" json:"email"`
	Password        string     `gorm:"type:varchar(255)" json:"-"`
	RememberToken   string     `gorm:"type:varchar(64);default:''" json:"-"`
	EmailVerifiedAt *time.Time `gorm:"default:null" json:"email_verified_at"`
	OAuthProvider   *string    `gorm:"column:oauth_provider;type:varchar(50);default:null" json:"oauth_provider"`
	OAuthLinkedAt   *time.Time `gorm:"column:oauth_linked_at;default:null" json:"oauth_linked_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Tokens           []Token           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Chirps           []Chirp           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProviderAccounts []ProviderAccount `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// NewUser hashes the raw password and returns an unsaved user.
func NewUser(name, email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &User{
		Name:     strings.TrimSpace(name),
		Email:    NormalizeEmail(email),
		Password: pw,
	}, nil
}

// NewOAuthUser returns an unsaved, already verified user whose password is a
// random placeholder nobody knows.
func NewOAuthUser(name, email, provider string, now time.Time) (*User, error) {
	u, err := NewUser(name, email, "oauth_"+uuid.NewString())
	if err != nil {
		return nil, err
	}
	p := provider
	u.OAuthProvider = &p
	u.OAuthLinkedAt = &now
	u.EmailVerifiedAt = &now
	return u, nil
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// IsVerified reports whether the email address has been confirmed.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// EmailHash is the hash carried by verification links. It is always computed
// from the current address, so changing the email invalidates older links.
func (u *User) EmailHash() string {
	return HashEmail(u.Email)
}

// MatchesEmailHash compares a link hash against the current address in constant time.
func (u *User) MatchesEmailHash(hash string) bool {
	return subtle.ConstantTimeCompare([]byte(u.EmailHash()), []byte(strings.ToLower(hash))) == 1
}

func HashEmail(email string) string {
	sum := sha1.Sum([]byte(email))
	return hex.EncodeToString(sum[:])
}
