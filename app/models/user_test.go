package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserHashesPassword(t *testing.T) {
	u, err := NewUser("  Alice ", "Alice@Example.COM", "password123")
	require.NoError(t, err)

	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "password123", u.Password)
	assert.True(t, u.CheckPassword("password123"))
	assert.False(t, u.CheckPassword("password124"))
	assert.False(t, u.IsVerified())
}

func TestNewOAuthUserIsVerified(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	u, err := NewOAuthUser("Bob", "bob@example.com", "github", now)
	require.NoError(t, err)

	assert.True(t, u.IsVerified())
	require.NotNil(t, u.OAuthProvider)
	assert.Equal(t, "github", *u.OAuthProvider)
	assert.Equal(t, now, *u.OAuthLinkedAt)
	assert.True(t, strings.HasPrefix(u.Password, "$2"))
}

func TestEmailHashFollowsCurrentEmail(t *testing.T) {
	u := &User{Email: "old@example.com"}
	hash := u.EmailHash()
	assert.True(t, u.MatchesEmailHash(hash))
	assert.True(t, u.MatchesEmailHash(strings.ToUpper(hash)))

	u.Email = "new@example.com"
	assert.False(t, u.MatchesEmailHash(hash))
	assert.False(t, u.MatchesEmailHash("invalid-hash"))
}

func TestNormalizeChirpMessage(t *testing.T) {
	msg, ok := NormalizeChirpMessage("  hello  ")
	assert.True(t, ok)
	assert.Equal(t, "hello", msg)

	_, ok = NormalizeChirpMessage("   ")
	assert.False(t, ok)

	_, ok = NormalizeChirpMessage(strings.Repeat("a", MaxChirpLength))
	assert.True(t, ok)

	_, ok = NormalizeChirpMessage(strings.Repeat("a", MaxChirpLength+1))
	assert.False(t, ok)

	_, ok = NormalizeChirpMessage(strings.Repeat("ü", MaxChirpLength))
	assert.True(t, ok)
}

func TestChirpIsOwnedBy(t *testing.T) {
	ch := &Chirp{UserID: 3}
	assert.True(t, ch.IsOwnedBy(3))
	assert.False(t, ch.IsOwnedBy(4))
	assert.False(t, (&Chirp{}).IsOwnedBy(0))
}
