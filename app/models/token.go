package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token is a personal access token used as an API bearer credential.
// Only the SHA-256 hash of the secret is persisted.
type Token struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	TokenHash string    `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	TokenName         = "api-token"
	TokenLifetime     = 60 * time.Minute
	tokenSecretPrefix = "chp_"
	tokenSecretBytes  = 25
)

var (
	tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

	ErrMalformedToken = errors.New("malformed access token")
)

// NewToken generates fresh token material for the user. The returned secret is
// the only copy of the raw value; callers must hand it to the client right away.
func NewToken(userID uint, issuedAt time.Time) (*Token, string, error) {
	secret, err := generateTokenSecret()
	if err != nil {
		return nil, "", err
	}
	t := &Token{
		UserID:    userID,
		Name:      TokenName,
		TokenHash: HashToken(secret),
		ExpiresAt: issuedAt.Add(TokenLifetime),
	}
	return t, secret, nil
}

// PlainText returns the value handed to clients: "<id>|<secret>".
func (t *Token) PlainText(secret string) string {
	return fmt.Sprintf("%d|%s", t.ID, secret)
}

// IsExpired reports whether the absolute lifetime has run out at now.
func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ParsePlainToken splits a presented bearer value into its id and secret. A bare
// secret without the id prefix is accepted and yields id 0.
func ParsePlainToken(plain string) (uint, string, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return 0, "", ErrMalformedToken
	}
	idPart, secret, found := strings.Cut(plain, "|")
	if !found {
		return 0, plain, nil
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || secret == "" {
		return 0, "", ErrMalformedToken
	}
	return uint(id), secret, nil
}

// HashToken returns the SHA-256 hash for the provided token secret.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateTokenSecret() (string, error) {
	b := make([]byte, tokenSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return tokenSecretPrefix + strings.ToLower(tokenEncoding.EncodeToString(b)), nil
}
