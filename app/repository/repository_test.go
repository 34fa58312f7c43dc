package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/internal/pkg/database/testdb"
)

func newUser(t *testing.T, repos *Repositories, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, Password: "x"}
	require.NoError(t, repos.User.Create(context.Background(), u))
	return u
}

func TestUserRepositoryUniqueEmail(t *testing.T) {
	repos := NewRepositories(testdb.New(t))
	ctx := context.Background()

	newUser(t, repos, "a@x.com")
	err := repos.User.Create(ctx, &models.User{Name: "Dup", Email: "a@x.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	count, err := repos.User.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	exists, err := repos.User.EmailExists(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repos.User.GetByEmail(ctx, "missing@x.com")
	assert.True(t, IsNotFound(err))
}

func TestMarkEmailVerifiedOnlyOnce(t *testing.T) {
	repos := NewRepositories(testdb.New(t))
	ctx := context.Background()
	u := newUser(t, repos, "v@x.com")

	first := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	changed, err := repos.User.MarkEmailVerified(ctx, u.ID, first)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repos.User.MarkEmailVerified(ctx, u.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repos.User.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EmailVerifiedAt)
	assert.True(t, first.Equal(got.EmailVerifiedAt.UTC()))
}

func TestSocialAccountUniqueIdentity(t *testing.T) {
	repos := NewRepositories(testdb.New(t))
	ctx := context.Background()
	u := newUser(t, repos, "s@x.com")

	require.NoError(t, repos.SocialAccount.Create(ctx, &models.SocialAccount{UserID: u.ID, ProviderName: "github", ProviderID: "42"}))
	err := repos.SocialAccount.Create(ctx, &models.SocialAccount{UserID: u.ID, ProviderName: "github", ProviderID: "42"})
	assert.True(t, IsDuplicateKey(err))

	// same id at another provider is a different identity
	require.NoError(t, repos.SocialAccount.Create(ctx, &models.SocialAccount{UserID: u.ID, ProviderName: "google", ProviderID: "42"}))

	acc, err := repos.SocialAccount.GetByProvider(ctx, "github", "42")
	require.NoError(t, err)
	assert.Equal(t, u.ID, acc.UserID)
}

func TestSocialAccountRequiresExistingUser(t *testing.T) {
	repos := NewRepositories(testdb.New(t))
	err := repos.SocialAccount.Create(context.Background(), &models.SocialAccount{UserID: 999, ProviderName: "github", ProviderID: "1"})
	assert.Error(t, err)
}

func TestAccessTokenRevokeIsIdempotent(t *testing.T) {
	repos := NewRepositories(testdb.New(t))
	ctx := context.Background()
	u := newUser(t, repos, "t@x.com")

	tok := &models.AccessToken{ID: uuid.NewString(), UserID: u.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repos.AccessToken.Create(ctx, tok))

	require.NoError(t, repos.AccessToken.Revoke(ctx, tok.ID))
	require.NoError(t, repos.AccessToken.Revoke(ctx, tok.ID))

	got, err := repos.AccessToken.GetByHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	assert.True(t, IsNotFound(repos.AccessToken.Revoke(ctx, "unknown")))
}

func TestAccessTokenRevokeActiveOnlyOnce(t *testing.T) {
	repos := NewRepositories(testdb.New(t))
	ctx := context.Background()
	u := newUser(t, repos, "t@x.com")

	tok := &models.AccessToken{ID: uuid.NewString(), UserID: u.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repos.AccessToken.Create(ctx, tok))

	revoked, err := repos.AccessToken.RevokeActive(ctx, tok.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repos.AccessToken.RevokeActive(ctx, tok.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = repos.AccessToken.RevokeActive(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAccessTokenPurge(t *testing.T) {
	repos := NewRepositories(testdb.New(t))
	ctx := context.Background()
	u := newUser(t, repos, "p@x.com")
	now := time.Now()

	live := &models.AccessToken{ID: uuid.NewString(), UserID: u.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour)}
	expired := &models.AccessToken{ID: uuid.NewString(), UserID: u.ID, TokenHash: "expired", ExpiresAt: now.Add(-48 * time.Hour)}
	require.NoError(t, repos.AccessToken.Create(ctx, live))
	require.NoError(t, repos.AccessToken.Create(ctx, expired))

	n, err := repos.AccessToken.Purge(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repos.AccessToken.GetByID(ctx, live.ID)
	assert.NoError(t, err)
	_, err = repos.AccessToken.GetByID(ctx, expired.ID)
	assert.True(t, IsNotFound(err))
}

func TestTransactionRollsBack(t *testing.T) {
	repos := NewRepositories(testdb.New(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := repos.Transaction(ctx, func(tx *Repositories) error {
		require.NoError(t, tx.User.Create(ctx, &models.User{Name: "R", Email: "r@x.com", Password: "x"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repos.User.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, IsDuplicateKey(&mysql.MySQLError{Number: 1045}))
	assert.False(t, IsDuplicateKey(errors.New("other")))
}
