// Package verification builds and checks signed, expiring email
// verification links.
package verification

import (
	"crypto/subtle"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
	"github.com/ManuelReschke/foxauth/internal/pkg/security"
)

const (
	// RoutePrefix is where the verify endpoint is mounted.
	RoutePrefix = "/api/v1/auth/email/verify"

	msgInvalidSignature = "Invalid or expired verification link."
)

type Signer struct {
	baseURL string
	secret  string
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(appURL string, cfg config.VerificationConfig) *Signer {
	return &Signer{
		baseURL: appURL,
		secret:  cfg.Secret,
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

// Path returns the unsigned route path for a user and email hash.
func Path(userID uint, hash string) string {
	return fmt.Sprintf("%s/%d/%s", RoutePrefix, userID, url.PathEscape(hash))
}

// URL returns the absolute signed link for user.
func (s *Signer) URL(user *models.User) string {
	path := Path(user.ID, user.EmailVerificationHash())
	expires := strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)
	signature := security.Sign(signedMessage(path, expires), s.secret)

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", signature)
	return s.baseURL + path + "?" + q.Encode()
}

// VerifyRequest checks the signature and expiry of an incoming request.
func (s *Signer) VerifyRequest(path, expires, signature string) error {
	if expires == "" || signature == "" {
		return apperror.LinkInvalid(msgInvalidSignature)
	}
	if !security.VerifySignature(signedMessage(path, expires), signature, s.secret) {
		return apperror.LinkInvalid(msgInvalidSignature)
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || s.now().Unix() > exp {
		return apperror.LinkInvalid(msgInvalidSignature)
	}
	return nil
}

// HashMatches compares the path hash against the user's current email in
// constant time.
func HashMatches(user *models.User, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(user.EmailVerificationHash()), []byte(hash)) == 1
}

func signedMessage(path, expires string) string {
	return path + "?expires=" + expires
}
