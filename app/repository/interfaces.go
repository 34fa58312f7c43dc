package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/foxauth/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// MarkEmailVerified sets email_verified_at only if it is still null and
	// reports whether this call performed the transition.
	MarkEmailVerified(ctx context.Context, id uint, at time.Time) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// SocialAccountRepository defines the interface for linked provider identities
type SocialAccountRepository interface {
	Create(ctx context.Context, account *models.SocialAccount) error
	GetByProvider(ctx context.Context, provider, providerID string) (*models.SocialAccount, error)
	Count(ctx context.Context) (int64, error)
}

// AccessTokenRepository defines the interface for persisted bearer tokens
type AccessTokenRepository interface {
	Create(ctx context.Context, token *models.AccessToken) error
	GetByHash(ctx context.Context, hash string) (*models.AccessToken, error)
	GetByID(ctx context.Context, id string) (*models.AccessToken, error)
	// Revoke marks the token revoked. Revoking an already revoked token is not an error.
	Revoke(ctx context.Context, id string) error
	// RevokeActive revokes the token only if it is still active and reports
	// whether this call performed the transition.
	RevokeActive(ctx context.Context, id string) (bool, error)
	// Purge deletes tokens that were revoked or expired before the cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	db            *gorm.DB
	User          UserRepository
	SocialAccount SocialAccountRepository
	AccessToken   AccessTokenRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:            db,
		User:          NewUserRepository(db),
		SocialAccount: NewSocialAccountRepository(db),
		AccessToken:   NewAccessTokenRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database
// transaction. Returning an error from fn rolls everything back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
