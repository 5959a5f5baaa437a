package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SignedURLSigner creates and validates signed receipt download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL reports how long generated tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate returns a token binding the receipt to the account that owns it.
func (s *SignedURLSigner) Generate(receiptID, owner string) (string, time.Time, error) {
	if receiptID == "" || owner == "" {
		return "", time.Time{}, fmt.Errorf("receiptID and owner required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	encodedOwner := base64.RawURLEncoding.EncodeToString([]byte(owner))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(receiptID, ts, encodedOwner)
	return strings.Join([]string{receiptID, ts, encodedOwner, signature}, "."), expiresAt, nil
}

// Parse validates a token and returns the receipt id and owner it carries.
func (s *SignedURLSigner) Parse(token string) (receiptID, owner string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, ErrInvalidToken
	}
	receiptID, ts, encodedOwner, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(receiptID, ts, encodedOwner)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, ErrInvalidToken
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	rawOwner, err := base64.RawURLEncoding.DecodeString(encodedOwner)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}

	expiresAt = time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return receiptID, string(rawOwner), expiresAt, nil
}

func (s *SignedURLSigner) sign(receiptID, ts, encodedOwner string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(receiptID + "|" + ts + "|" + encodedOwner))
	return hex.EncodeToString(mac.Sum(nil))
}
