// Package token issues, authenticates, refreshes and revokes opaque bearer
// tokens. The plain value is handed out once; only its sha256 is stored.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/app/repository"
	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
)

const (
	TokenType  = "Bearer"
	valueBytes = 40
)

var ErrUnknownScope = errors.New("unknown scope")

// Issued is a freshly minted token. Value is the only copy of the secret.
type Issued struct {
	Value string
	Token *models.AccessToken
}

type Issuer struct {
	repos *repository.Repositories
	cfg   config.TokenConfig
	now   func() time.Time
}

func NewIssuer(repos *repository.Repositories, cfg config.TokenConfig) *Issuer {
	return &Issuer{repos: repos, cfg: cfg.Clone(), now: time.Now}
}

// WithRepositories returns a copy of the issuer that writes through repos,
// typically the transaction-bound set handed out by Repositories.Transaction.
func (i *Issuer) WithRepositories(repos *repository.Repositories) *Issuer {
	c := *i
	c.repos = repos
	return &c
}

// DefaultScopes returns a copy of the configured default scope list.
func (i *Issuer) DefaultScopes() []string {
	return append([]string(nil), i.cfg.DefaultScopes...)
}

// Issue mints a token for userID bound to exactly the given scopes. An
// empty scope list means the configured defaults.
func (i *Issuer) Issue(ctx context.Context, userID uint, name string, scopes []string) (*Issued, error) {
	return i.issue(ctx, i.repos, userID, name, scopes)
}

func (i *Issuer) issue(ctx context.Context, repos *repository.Repositories, userID uint, name string, scopes []string) (*Issued, error) {
	if len(scopes) == 0 {
		scopes = i.DefaultScopes()
	}
	for _, s := range scopes {
		if !i.cfg.Known(s) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScope, s)
		}
	}
	if name == "" {
		name = i.cfg.Name
	}

	value, err := generateValue()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	tok := &models.AccessToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		TokenHash: Hash(value),
		ExpiresAt: i.now().Add(i.cfg.TTL).UTC(),
	}
	tok.SetScopes(scopes)

	if err := repos.AccessToken.Create(ctx, tok); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &Issued{Value: value, Token: tok}, nil
}

// Authenticate resolves a presented token value. Unknown, revoked and
// expired tokens all yield the same authentication error.
func (i *Issuer) Authenticate(ctx context.Context, value string) (*models.AccessToken, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperror.Unauthenticated()
	}

	tok, err := i.repos.AccessToken.GetByHash(ctx, Hash(value))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.Unauthenticated()
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if !tok.IsUsable(i.now()) {
		return nil, apperror.Unauthenticated()
	}
	return tok, nil
}

// Revoke permanently disables the token. Already revoked tokens are fine.
func (i *Issuer) Revoke(ctx context.Context, tokenID string) error {
	if err := i.repos.AccessToken.Revoke(ctx, tokenID); err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("Token not found.")
		}
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Refresh issues a replacement carrying the same scopes and then revokes
// current, both inside one transaction. If either step fails nothing is
// committed and current stays valid. A token that is no longer active,
// including one already refreshed by a concurrent request, is rejected as
// unauthenticated.
func (i *Issuer) Refresh(ctx context.Context, current *models.AccessToken) (*Issued, error) {
	var issued *Issued
	err := i.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		issued, err = i.issue(ctx, tx, current.UserID, current.Name, current.ScopeList())
		if err != nil {
			return err
		}
		revoked, err := tx.AccessToken.RevokeActive(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("revoke previous token: %w", err)
		}
		if !revoked {
			return apperror.Unauthenticated()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Purge deletes tokens revoked or expired longer ago than the retention window.
func (i *Issuer) Purge(ctx context.Context) (int64, error) {
	return i.repos.AccessToken.Purge(ctx, i.now().Add(-i.cfg.PurgeRetention))
}

// Hash returns the hex sha256 of a token value.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func generateValue() (string, error) {
	b := make([]byte, valueBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
