// Package auth implements registration, login, the token lifecycle, email
// verification and social login on top of the repositories and the token
// issuer. It returns *apperror.Error values; HTTP mapping happens in the
// controllers.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/app/repository"
	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
	"github.com/ManuelReschke/foxauth/internal/pkg/events"
	"github.com/ManuelReschke/foxauth/internal/pkg/oauth"
	"github.com/ManuelReschke/foxauth/internal/pkg/token"
	"github.com/ManuelReschke/foxauth/internal/pkg/validation"
	"github.com/ManuelReschke/foxauth/internal/pkg/verification"
)

// VerificationSender delivers a verification link to a user.
type VerificationSender interface {
	Send(ctx context.Context, user *models.User) error
}

type Dependencies struct {
	Repos     *repository.Repositories
	Issuer    *token.Issuer
	Signer    *verification.Signer
	Notifier  VerificationSender
	Events    events.Publisher
	Providers *oauth.Registry
	OAuth     config.OAuthConfig
}

type Service struct {
	repos     *repository.Repositories
	issuer    *token.Issuer
	signer    *verification.Signer
	notifier  VerificationSender
	events    events.Publisher
	providers *oauth.Registry
	oauth     config.OAuthConfig
	now       func() time.Time
}

func NewService(d Dependencies) *Service {
	if d.Events == nil {
		d.Events = events.LogPublisher{}
	}
	if d.Providers == nil {
		d.Providers = oauth.NewRegistryFrom()
	}
	return &Service{
		repos:     d.Repos,
		issuer:    d.Issuer,
		signer:    d.Signer,
		notifier:  d.Notifier,
		events:    d.Events,
		providers: d.Providers,
		oauth:     d.OAuth.Clone(),
		now:       time.Now,
	}
}

// Session is what a successful register, login, refresh or social callback
// hands back to the client.
type Session struct {
	Token *token.Issued
	User  *models.User
}

type RegisterInput struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,maxbytes=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates the account and its first token in one transaction,
// then queues the verification mail. Mail failures are logged only.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.repos.User.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("check email: %w", err))
	}
	if exists {
		return nil, apperror.FieldValidation("email", MsgEmailTaken)
	}

	user, err := models.NewUser(in.Name, in.Email, in.Password)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("hash password: %w", err))
	}

	var issued *token.Issued
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		var err error
		issued, err = s.issuer.WithRepositories(tx).Issue(ctx, user.ID, "", nil)
		return err
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperror.FieldValidation("email", MsgEmailTaken)
		}
		return nil, apperror.Internal(fmt.Errorf("register user: %w", err))
	}

	if err := s.notifier.Send(ctx, user); err != nil {
		log.Errorf("[Auth] Failed to queue verification mail for user %d: %v", user.ID, err)
	}
	s.publish(ctx, events.UserRegistered, user.ID)

	return &Session{Token: issued, User: user}, nil
}

// Login checks the credentials. Unknown email and wrong password are
// indistinguishable in both response and cost.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.repos.User.GetByEmail(ctx, in.Email)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, apperror.Internal(fmt.Errorf("load user: %w", err))
		}
		models.DummyPasswordCheck(in.Password)
		return nil, apperror.FieldValidation("email", MsgInvalidCredentials)
	}
	if !user.CheckPassword(in.Password) {
		return nil, apperror.FieldValidation("email", MsgInvalidCredentials)
	}

	issued, err := s.issuer.Issue(ctx, user.ID, "", nil)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Session{Token: issued, User: user}, nil
}

// Authenticate resolves a bearer value to its token and owner.
func (s *Service) Authenticate(ctx context.Context, value string) (*models.User, *models.AccessToken, error) {
	tok, err := s.issuer.Authenticate(ctx, value)
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, nil, err
		}
		return nil, nil, apperror.Internal(err)
	}
	user, err := s.repos.User.GetByID(ctx, tok.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperror.Unauthenticated()
		}
		return nil, nil, apperror.Internal(fmt.Errorf("load token owner: %w", err))
	}
	return user, tok, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, tok *models.AccessToken) error {
	if err := s.issuer.Revoke(ctx, tok.ID); err != nil {
		if _, ok := apperror.As(err); ok {
			return err
		}
		return apperror.Internal(err)
	}
	return nil
}

// Refresh swaps the presented token for a new one with the same scopes.
func (s *Service) Refresh(ctx context.Context, user *models.User, tok *models.AccessToken) (*Session, error) {
	issued, err := s.issuer.Refresh(ctx, tok)
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, apperror.Internal(err)
	}
	return &Session{Token: issued, User: user}, nil
}

func (s *Service) publish(ctx context.Context, name string, userID uint) {
	if err := s.events.Publish(ctx, events.New(name, userID)); err != nil {
		log.Warnf("[Auth] Failed to publish %s for user %d: %v", name, userID, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
