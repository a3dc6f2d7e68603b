package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

const defaultAvatarSize = 200

// GetGravatarURL returns the avatar URL for an email address. Unknown
// addresses fall back to the "mystery person" image.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = defaultAvatarSize
	}
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=mp", hex.EncodeToString(hash[:]), size)
}
