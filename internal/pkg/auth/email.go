package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/app/repository"
	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/events"
	"github.com/ManuelReschke/foxauth/internal/pkg/verification"
)

type VerifyOutcome int

const (
	// Verified means this request performed the transition.
	Verified VerifyOutcome = iota + 1
	AlreadyVerified
)

// VerifyRequest carries the pieces of an incoming verification link.
type VerifyRequest struct {
	Path      string
	ID        string
	Hash      string
	Expires   string
	Signature string
}

// VerifyEmail checks a verification link. Signature and expiry are checked
// before the user is looked up.
func (s *Service) VerifyEmail(ctx context.Context, req VerifyRequest) (VerifyOutcome, error) {
	if err := s.signer.VerifyRequest(req.Path, req.Expires, req.Signature); err != nil {
		return 0, err
	}

	id, err := strconv.ParseUint(req.ID, 10, 64)
	if err != nil {
		return 0, apperror.NotFound(MsgUserNotFound)
	}
	user, err := s.repos.User.GetByID(ctx, uint(id))
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, apperror.NotFound(MsgUserNotFound)
		}
		return 0, apperror.Internal(fmt.Errorf("load user: %w", err))
	}

	if !verification.HashMatches(user, req.Hash) {
		return 0, apperror.LinkInvalid(MsgInvalidLink)
	}
	if user.HasVerifiedEmail() {
		return AlreadyVerified, nil
	}

	changed, err := s.repos.User.MarkEmailVerified(ctx, user.ID, s.now().UTC())
	if err != nil {
		return 0, apperror.Internal(fmt.Errorf("mark verified: %w", err))
	}
	if !changed {
		// a concurrent request won
		return AlreadyVerified, nil
	}
	s.publish(ctx, events.UserVerified, user.ID)
	return Verified, nil
}

// ResendVerification queues a fresh link for an unverified user.
func (s *Service) ResendVerification(ctx context.Context, user *models.User) error {
	if user.HasVerifiedEmail() {
		return apperror.BadRequest(MsgAlreadyVerified)
	}
	if err := s.notifier.Send(ctx, user); err != nil {
		return apperror.Internal(fmt.Errorf("queue verification mail: %w", err))
	}
	return nil
}
