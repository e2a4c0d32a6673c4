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
	// ErrInvalidToken reports a malformed or tampered download token.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired reports a well-formed token past its expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadClaims is what a download token vouches for.
type DownloadClaims struct {
	JobID     string
	RelPath   string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC-SHA256 download tokens of the form
// jobID.expiry.base64(path).signature.
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
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the signer's time source.
func (s *SignedURLSigner) WithClock(now func() time.Time) *SignedURLSigner {
	if now != nil {
		s.now = now
	}
	return s
}

// Sign returns a token for the stored export of a job.
func (s *SignedURLSigner) Sign(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" || strings.Contains(jobID, ".") {
		return "", time.Time{}, fmt.Errorf("sign download: job id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("sign download: secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{jobID, exp, encodedPath, s.mac(jobID, exp, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of token. With allowExpired the
// expiry is ignored so cleanup can still locate the file.
func (s *SignedURLSigner) Verify(token string, allowExpired bool) (DownloadClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadClaims{}, ErrInvalidToken
	}
	jobID, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.mac(jobID, exp, encodedPath)), []byte(signature)) {
		return DownloadClaims{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return DownloadClaims{}, ErrInvalidToken
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return DownloadClaims{}, ErrInvalidToken
	}
	claims := DownloadClaims{JobID: jobID, RelPath: string(rawPath), ExpiresAt: time.Unix(unix, 0)}
	if !allowExpired && s.now().After(claims.ExpiresAt) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

func (s *SignedURLSigner) mac(jobID, exp, encodedPath string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(jobID + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(h.Sum(nil))
}
