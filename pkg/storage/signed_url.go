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
	// ErrTokenInvalid marks malformed or tampered download tokens.
	ErrTokenInvalid = errors.New("invalid download token")
	// ErrTokenExpired marks tokens past their expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadGrant is the payload carried by a signed evidence link.
type DownloadGrant struct {
	EvidenceID string
	StorageKey string
	ExpiresAt  time.Time
}

// SignedURLSigner issues and verifies time-limited evidence download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Sign returns a token of the form id.exp.key.sig for the evidence blob.
func (s *SignedURLSigner) Sign(evidenceID, storageKey string) (string, DownloadGrant, error) {
	if evidenceID == "" || storageKey == "" {
		return "", DownloadGrant{}, fmt.Errorf("evidence id and storage key required")
	}
	if strings.Contains(evidenceID, ".") {
		return "", DownloadGrant{}, fmt.Errorf("evidence id must not contain dots")
	}
	if len(s.secret) == 0 {
		return "", DownloadGrant{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedKey := base64.RawURLEncoding.EncodeToString([]byte(storageKey))
	token := strings.Join([]string{evidenceID, exp, encodedKey, s.mac(evidenceID, exp, encodedKey)}, ".")
	return token, DownloadGrant{EvidenceID: evidenceID, StorageKey: storageKey, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature and expiry of a token and returns its grant.
func (s *SignedURLSigner) Verify(token string) (DownloadGrant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || parts[0] == "" {
		return DownloadGrant{}, ErrTokenInvalid
	}
	evidenceID, exp, encodedKey, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.mac(evidenceID, exp, encodedKey)), []byte(signature)) {
		return DownloadGrant{}, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return DownloadGrant{}, ErrTokenInvalid
	}
	rawKey, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil || len(rawKey) == 0 {
		return DownloadGrant{}, ErrTokenInvalid
	}
	grant := DownloadGrant{EvidenceID: evidenceID, StorageKey: string(rawKey), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(grant.ExpiresAt) {
		return grant, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) mac(evidenceID, exp, encodedKey string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(evidenceID + "|" + exp + "|" + encodedKey))
	return hex.EncodeToString(h.Sum(nil))
}
