package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/app/repository"
	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/auth/authtest"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
	"github.com/ManuelReschke/foxauth/internal/pkg/database/testdb"
	"github.com/ManuelReschke/foxauth/internal/pkg/events"
	"github.com/ManuelReschke/foxauth/internal/pkg/oauth"
	"github.com/ManuelReschke/foxauth/internal/pkg/token"
	"github.com/ManuelReschke/foxauth/internal/pkg/verification"
)

var secret = strings.Repeat("k", 32)

type fixture struct {
	svc       *Service
	db        *gorm.DB
	repos     *repository.Repositories
	signer    *verification.Signer
	sender    *authtest.Sender
	publisher *authtest.Publisher
	github    *authtest.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	repos := repository.NewRepositories(db)
	issuer := token.NewIssuer(repos, config.TokenConfig{
		Name:          "auth_token",
		Catalogue:     []config.Scope{{Name: config.ScopeReadContent}, {Name: config.ScopeWriteContent}},
		DefaultScopes: []string{config.ScopeReadContent, config.ScopeWriteContent},
		TTL:           time.Hour,
	})
	signer := verification.NewSigner("http://localhost:4000", config.VerificationConfig{TTL: time.Hour, Secret: secret})
	github := &authtest.Provider{ProviderName: "github", Profile: oauth.Profile{ID: "1001", Email: "octo@x.com", Name: "Octo"}}

	f := &fixture{
		db:        db,
		repos:     repos,
		signer:    signer,
		sender:    &authtest.Sender{},
		publisher: &authtest.Publisher{},
		github:    github,
	}
	f.svc = NewService(Dependencies{
		Repos:     repos,
		Issuer:    issuer,
		Signer:    signer,
		Notifier:  f.sender,
		Events:    f.publisher,
		Providers: oauth.NewRegistryFrom(github),
		OAuth:     config.OAuthConfig{StateTTL: time.Minute, StateSecret: secret},
	})
	return f
}

func (f *fixture) register(t *testing.T, email string) *Session {
	t.Helper()
	s, err := f.svc.Register(context.Background(), RegisterInput{
		Name:                 "Ada",
		Email:                email,
		Password:             "secret123",
		PasswordConfirmation: "secret123",
	})
	require.NoError(t, err)
	return s
}

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind, appErr.Message)
	return appErr
}

func TestRegisterCreatesUserAndToken(t *testing.T) {
	f := newFixture(t)
	s := f.register(t, " A@X.com ")

	assert.Equal(t, "a@x.com", s.User.Email)
	assert.NotEqual(t, "secret123", s.User.Password)
	assert.False(t, s.User.HasVerifiedEmail())
	assert.Equal(t, []string{config.ScopeReadContent, config.ScopeWriteContent}, s.Token.Token.ScopeList())
	assert.Equal(t, 1, f.sender.Count())
	assert.Equal(t, 1, f.publisher.Count(events.UserRegistered))

	user, tok, err := f.svc.Authenticate(context.Background(), s.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, user.ID)
	assert.Equal(t, s.Token.Token.ID, tok.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "B", Email: "A@x.com", Password: "secret123", PasswordConfirmation: "secret123",
	})
	appErr := requireKind(t, err, apperror.KindValidation)
	assert.Equal(t, []string{MsgEmailTaken}, appErr.Fields["email"])

	n, err := f.repos.User.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "", Email: "not-an-email", Password: "short", PasswordConfirmation: "other",
	})
	appErr := requireKind(t, err, apperror.KindValidation)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "password")
	assert.Contains(t, appErr.Fields, "password_confirmation")

	n, err := f.repos.User.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.sender.Count())
}

func TestRegisterPasswordLengthLimit(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("p", 80)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "a@x.com", Password: long, PasswordConfirmation: long,
	})
	appErr := requireKind(t, err, apperror.KindValidation)
	assert.Equal(t, []string{"The password field must not be greater than 72 bytes."}, appErr.Fields["password"])

	n, err := f.repos.User.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	limit := strings.Repeat("p", 72)
	s, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "a@x.com", Password: limit, PasswordConfirmation: limit,
	})
	require.NoError(t, err)
	assert.True(t, s.User.CheckPassword(limit))
}

func TestRegisterSucceedsWhenMailQueueFails(t *testing.T) {
	f := newFixture(t)
	f.sender.Err = errors.New("queue down")

	s := f.register(t, "a@x.com")
	assert.NotEmpty(t, s.Token.Value)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com")
	ctx := context.Background()

	_, wrongPw := f.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "wrong-password"})
	_, unknown := f.svc.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "wrong-password"})

	a := requireKind(t, wrongPw, apperror.KindValidation)
	b := requireKind(t, unknown, apperror.KindValidation)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, a.Fields, b.Fields)
	assert.Equal(t, MsgInvalidCredentials, a.Message)
}

func TestLoginUnverifiedUserGetsToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com")

	s, err := f.svc.Login(context.Background(), LoginInput{Email: "A@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token.Value)
	assert.False(t, s.User.HasVerifiedEmail())
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	s := f.register(t, "a@x.com")
	ctx := context.Background()

	_, tok, err := f.svc.Authenticate(ctx, s.Token.Value)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, tok))
	require.NoError(t, f.svc.Logout(ctx, tok))

	_, _, err = f.svc.Authenticate(ctx, s.Token.Value)
	requireKind(t, err, apperror.KindAuthentication)
}

func TestRefreshReplacesToken(t *testing.T) {
	f := newFixture(t)
	s := f.register(t, "a@x.com")
	ctx := context.Background()

	user, tok, err := f.svc.Authenticate(ctx, s.Token.Value)
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, user, tok)
	require.NoError(t, err)
	assert.NotEqual(t, s.Token.Value, next.Token.Value)
	assert.Equal(t, tok.ScopeList(), next.Token.Token.ScopeList())

	_, _, err = f.svc.Authenticate(ctx, s.Token.Value)
	requireKind(t, err, apperror.KindAuthentication)
	_, _, err = f.svc.Authenticate(ctx, next.Token.Value)
	assert.NoError(t, err)

	_, err = f.svc.Refresh(ctx, user, tok)
	requireKind(t, err, apperror.KindAuthentication)
}

func verifyRequest(t *testing.T, link string) VerifyRequest {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	parts := strings.Split(strings.TrimPrefix(u.Path, verification.RoutePrefix+"/"), "/")
	require.Len(t, parts, 2)
	return VerifyRequest{
		Path:      u.Path,
		ID:        parts[0],
		Hash:      parts[1],
		Expires:   u.Query().Get("expires"),
		Signature: u.Query().Get("signature"),
	}
}

func TestVerifyEmailFlow(t *testing.T) {
	f := newFixture(t)
	s := f.register(t, "a@x.com")
	ctx := context.Background()
	req := verifyRequest(t, f.signer.URL(s.User))

	outcome, err := f.svc.VerifyEmail(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, Verified, outcome)

	user, err := f.repos.User.GetByID(ctx, s.User.ID)
	require.NoError(t, err)
	require.NotNil(t, user.EmailVerifiedAt)
	first := *user.EmailVerifiedAt

	outcome, err = f.svc.VerifyEmail(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, AlreadyVerified, outcome)

	user, err = f.repos.User.GetByID(ctx, s.User.ID)
	require.NoError(t, err)
	assert.True(t, first.Equal(*user.EmailVerifiedAt))
	assert.Equal(t, 1, f.publisher.Count(events.UserVerified))
}

func TestVerifyEmailRejections(t *testing.T) {
	f := newFixture(t)
	s := f.register(t, "a@x.com")
	ctx := context.Background()

	t.Run("tampered signature", func(t *testing.T) {
		req := verifyRequest(t, f.signer.URL(s.User))
		req.Signature = strings.Repeat("0", len(req.Signature))
		_, err := f.svc.VerifyEmail(ctx, req)
		requireKind(t, err, apperror.KindLinkInvalid)
	})

	t.Run("unknown user", func(t *testing.T) {
		req := verifyRequest(t, f.signer.URL(&models.User{ID: 9999, Email: "ghost@x.com"}))
		_, err := f.svc.VerifyEmail(ctx, req)
		requireKind(t, err, apperror.KindNotFound)
	})

	t.Run("hash of another email", func(t *testing.T) {
		req := verifyRequest(t, f.signer.URL(&models.User{ID: s.User.ID, Email: "other@x.com"}))
		_, err := f.svc.VerifyEmail(ctx, req)
		appErr := requireKind(t, err, apperror.KindLinkInvalid)
		assert.Equal(t, "Invalid verification link.", appErr.Message)
	})

	user, err := f.repos.User.GetByID(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Nil(t, user.EmailVerifiedAt)
	assert.Zero(t, f.publisher.Count(events.UserVerified))
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	s := f.register(t, "a@x.com")
	ctx := context.Background()

	require.NoError(t, f.svc.ResendVerification(ctx, s.User))
	assert.Equal(t, 2, f.sender.Count())

	_, err := f.svc.VerifyEmail(ctx, verifyRequest(t, f.signer.URL(s.User)))
	require.NoError(t, err)
	user, err := f.repos.User.GetByID(ctx, s.User.ID)
	require.NoError(t, err)

	err = f.svc.ResendVerification(ctx, user)
	requireKind(t, err, apperror.KindBadRequest)
	assert.Equal(t, 2, f.sender.Count())
}
