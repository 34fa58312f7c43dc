package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/app/repository"
	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/oauth"
	"github.com/ManuelReschke/foxauth/internal/pkg/security"
)

const maxResolveAttempts = 3

var errRetryResolve = errors.New("social identity changed concurrently")

func upstreamFailure(provider string, err error) *apperror.Error {
	return apperror.Upstream(fmt.Sprintf("Failed to retrieve user from %s provider.", provider), err)
}

// SocialRedirect returns the provider authorization URL with a signed state.
func (s *Service) SocialRedirect(provider string) (string, error) {
	p, ok := s.providers.Get(provider)
	if !ok {
		return "", apperror.BadRequest(MsgProviderUnsupported)
	}
	state, err := security.GenerateStateToken(provider, s.oauth.StateTTL, s.oauth.StateSecret)
	if err != nil {
		return "", apperror.Internal(fmt.Errorf("generate state: %w", err))
	}
	target, err := p.AuthCodeURL(state)
	if err != nil {
		return "", apperror.BadRequest(MsgProviderUnsupported)
	}
	return target, nil
}

// SocialCallback finishes the provider round trip, resolves the local user
// and issues a token.
func (s *Service) SocialCallback(ctx context.Context, provider string, params url.Values) (*Session, error) {
	p, ok := s.providers.Get(provider)
	if !ok {
		return nil, apperror.BadRequest(MsgProviderUnsupported)
	}
	if e := params.Get("error"); e != "" {
		return nil, upstreamFailure(provider, fmt.Errorf("provider returned error %q", e))
	}
	if _, err := security.VerifyStateToken(params.Get("state"), provider, s.oauth.StateSecret); err != nil {
		return nil, upstreamFailure(provider, fmt.Errorf("state: %w", err))
	}

	profile, err := p.Exchange(ctx, params)
	if err != nil {
		return nil, upstreamFailure(provider, err)
	}

	user, err := s.resolveSocialUser(ctx, profile)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	issued, err := s.issuer.Issue(ctx, user.ID, "", nil)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Session{Token: issued, User: user}, nil
}

// resolveSocialUser finds or creates the user for profile. Uniqueness is
// left to the indexes: a duplicate key means another callback created the
// row first, so the transaction is rolled back and the lookup repeated.
func (s *Service) resolveSocialUser(ctx context.Context, profile *oauth.Profile) (*models.User, error) {
	secret, err := models.RandomPassword()
	if err != nil {
		return nil, err
	}
	passwordHash, err := models.HashPassword(secret)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxResolveAttempts; attempt++ {
		var user *models.User
		err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
			var err error
			user, err = s.resolveInTx(ctx, tx, profile, passwordHash)
			return err
		})
		if err == nil {
			return user, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, fmt.Errorf("resolve %s identity: %w", profile.Provider, err)
		}
		lastErr = err
		log.Infof("[Auth] Concurrent %s login for %s, retrying (attempt %d)", profile.Provider, profile.ID, attempt)
	}
	return nil, fmt.Errorf("resolve %s identity: %w: %v", profile.Provider, errRetryResolve, lastErr)
}

func (s *Service) resolveInTx(ctx context.Context, tx *repository.Repositories, profile *oauth.Profile, passwordHash string) (*models.User, error) {
	account, err := tx.SocialAccount.GetByProvider(ctx, profile.Provider, profile.ID)
	if err == nil {
		return tx.User.GetByID(ctx, account.UserID)
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	var user *models.User
	if profile.Email != "" {
		user, err = tx.User.GetByEmail(ctx, profile.Email)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
	}

	if user == nil {
		user = s.newSocialUser(profile, passwordHash)
		if err := tx.User.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	if err := tx.SocialAccount.Create(ctx, &models.SocialAccount{
		UserID:       user.ID,
		ProviderName: profile.Provider,
		ProviderID:   profile.ID,
	}); err != nil {
		return nil, err
	}
	return user, nil
}

// newSocialUser builds a user whose password hash belongs to a random
// secret nobody knows. Without a provider email the account gets a
// placeholder address and stays unverified.
func (s *Service) newSocialUser(profile *oauth.Profile, passwordHash string) *models.User {
	user := &models.User{
		Name:     truncate(profile.DisplayName(), 255),
		Password: passwordHash,
	}
	if profile.Email != "" {
		now := s.now().UTC().Truncate(time.Second)
		user.Email = profile.Email
		user.EmailVerifiedAt = &now
	} else {
		user.Email = PlaceholderEmail(profile.Provider, profile.ID)
	}
	return user
}

// PlaceholderEmail is the synthetic address for provider accounts that did
// not share an email.
func PlaceholderEmail(provider, id string) string {
	return fmt.Sprintf("%s_%s@%s.oauth.local", provider, id, provider)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
