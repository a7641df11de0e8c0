package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

const (
	confirmationInfo   = "yamdb.auth.confirmation-code"
	confirmationSigLen = 32
	defaultCodeTTL     = 24 * time.Hour
	maxClockSkew       = time.Minute
)

// ConfirmationCodes derives and verifies signup codes without storing them.
// A code is an issue timestamp plus an HMAC over the user's identity and
// last_login, so it stops verifying once last_login moves.
type ConfirmationCodes struct {
	key []byte
	ttl time.Duration
}

// NewConfirmationCodes derives the code key from the process secret with
// HKDF, so the access-token key and the code key never coincide.
func NewConfirmationCodes(secret string, ttl time.Duration) *ConfirmationCodes {
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}
	return &ConfirmationCodes{key: deriveCodeKey(secret), ttl: ttl}
}

func deriveCodeKey(secret string) []byte {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(confirmationInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		// HKDF-SHA256 yields up to 8160 bytes; 32 cannot fail.
		panic(fmt.Sprintf("derive confirmation key: %v", err))
	}
	return key
}

// Make returns a code for u issued at now.
func (c *ConfirmationCodes) Make(u *domain.User, now time.Time) string {
	ts := now.Unix()
	return strconv.FormatInt(ts, 36) + "-" + c.sign(u, ts)
}

// Check reports whether code was made for u in its current state and has
// not expired.
func (c *ConfirmationCodes) Check(u *domain.User, code string, now time.Time) bool {
	if u == nil {
		return false
	}
	tsPart, sig, ok := strings.Cut(code, "-")
	if !ok || len(sig) != confirmationSigLen {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}
	issued := time.Unix(ts, 0)
	if issued.After(now.Add(maxClockSkew)) || now.Sub(issued) > c.ttl {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(c.sign(u, ts)))
}

func (c *ConfirmationCodes) sign(u *domain.User, ts int64) string {
	var lastLogin int64
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UnixMilli()
	}
	mac := hmac.New(sha256.New, c.key)
	fmt.Fprintf(mac, "%s|%s|%s|%d|%d", u.ID, u.Username, u.Email, lastLogin, ts)
	return hex.EncodeToString(mac.Sum(nil))[:confirmationSigLen]
}
