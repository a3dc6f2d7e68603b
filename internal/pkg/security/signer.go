package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpiredSignature = errors.New("signature expired")
)

// Signer produces and checks HMAC-SHA256 signatures with the application key.
type Signer struct {
	key []byte
}

func NewSigner(key string) (*Signer, error) {
	if key == "" {
		return nil, errors.New("secret is required for signing")
	}
	return &Signer{key: []byte(key)}, nil
}

func (s *Signer) mac(payload string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(payload))
	return m.Sum(nil)
}

// Sign returns "<payload>.<sig>" with the signature base64url encoded.
func (s *Signer) Sign(payload string) string {
	return payload + "." + base64.RawURLEncoding.EncodeToString(s.mac(payload))
}

// Unsign returns the payload of a value produced by Sign.
func (s *Signer) Unsign(value string) (string, error) {
	i := strings.LastIndex(value, ".")
	if i < 0 {
		return "", ErrInvalidSignature
	}
	payload := value[:i]
	sig, err := base64.RawURLEncoding.DecodeString(value[i+1:])
	if err != nil {
		return "", ErrInvalidSignature
	}
	if !hmac.Equal(sig, s.mac(payload)) {
		return "", ErrInvalidSignature
	}
	return payload, nil
}

// SignURL appends expires and signature query parameters to path. The
// signature covers the path and the expiry.
func (s *Signer) SignURL(path string, expiresAt time.Time) string {
	expires := strconv.FormatInt(expiresAt.Unix(), 10)
	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", hex.EncodeToString(s.mac(path+"?expires="+expires)))
	return path + "?" + q.Encode()
}

// CheckURL validates the signature of a path signed by SignURL. The two checks
// are reported separately: signature first, then expiry against now.
func (s *Signer) CheckURL(path, expires, signature string, now time.Time) (validSignature, notExpired bool) {
	sig, err := hex.DecodeString(signature)
	if err != nil || expires == "" {
		return false, false
	}
	validSignature = hmac.Equal(sig, s.mac(path+"?expires="+expires))
	ts, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return validSignature, false
	}
	return validSignature, now.Before(time.Unix(ts, 0))
}
