package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tutoria/auth/internal/ids"
	"tutoria/auth/internal/models"
	"tutoria/auth/internal/notify"
	"tutoria/auth/internal/repository"
	"tutoria/auth/internal/security"
)

// FederatedStore is the slice of the credential store the OAuth callback
// needs.
type FederatedStore interface {
	FindByGoogleIDOrEmail(ctx context.Context, googleID, email string) (models.User, error)
	Create(ctx context.Context, user models.User) error
	LinkGoogle(ctx context.Context, id, googleID string, avatarURL *string, at time.Time) error
	RefreshGoogleLogin(ctx context.Context, id string, avatarURL *string, at time.Time) error
}

type GoogleService struct {
	users    FederatedStore
	tokens   *security.TokenIssuer
	notifier Notifier
	log      zerolog.Logger
}

func NewGoogleService(users FederatedStore, tokens *security.TokenIssuer, notifier Notifier, log zerolog.Logger) *GoogleService {
	return &GoogleService{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
	}
}

// Authenticate reconciles a Google identity assertion against the local
// store: create a new account, link the identity to an existing one, or
// refresh an already-linked one. A stored Google id that differs from the
// asserted one is rejected rather than overwritten.
func (s *GoogleService) Authenticate(ctx context.Context, identity models.GoogleIdentity) (AuthResult, error) {
	now := time.Now()

	user, err := s.users.FindByGoogleIDOrEmail(ctx, identity.GoogleID, identity.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return s.create(ctx, identity, now)
		}
		return AuthResult{}, err
	}

	switch user.Status {
	case models.UserStatusSuspended:
		return AuthResult{}, ErrAccountSuspended
	case models.UserStatusInactive:
		return AuthResult{}, ErrAccountInactive
	}

	switch {
	case user.GoogleID == nil:
		return s.link(ctx, user, identity, now)
	case *user.GoogleID == identity.GoogleID:
		return s.refresh(ctx, user, identity, now)
	default:
		return AuthResult{}, ErrIdentityConflict
	}
}

func (s *GoogleService) create(ctx context.Context, identity models.GoogleIdentity, now time.Time) (AuthResult, error) {
	googleID := identity.GoogleID
	user := models.User{
		ID:            ids.New(),
		Email:         identity.Email,
		FirstName:     identity.FirstName,
		LastName:      identity.LastName,
		GoogleID:      &googleID,
		Role:          models.UserRoleStudent,
		Status:        models.UserStatusActive,
		AvatarURL:     identity.AvatarURL,
		EmailVerified: true, // provider-verified
		LastLoginAt:   &now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}

	s.notifier.Dispatch(notify.Event{
		Type:  notify.EventUserWelcome,
		Email: user.Email,
		Name:  strings.TrimSpace(user.FirstName + " " + user.LastName),
	})

	return s.issue(user)
}

func (s *GoogleService) link(ctx context.Context, user models.User, identity models.GoogleIdentity, now time.Time) (AuthResult, error) {
	if err := s.users.LinkGoogle(ctx, user.ID, identity.GoogleID, identity.AvatarURL, now); err != nil {
		return AuthResult{}, err
	}

	googleID := identity.GoogleID
	user.GoogleID = &googleID
	user.AvatarURL = identity.AvatarURL
	user.Status = models.UserStatusActive
	user.LastLoginAt = &now

	return s.issue(user)
}

func (s *GoogleService) refresh(ctx context.Context, user models.User, identity models.GoogleIdentity, now time.Time) (AuthResult, error) {
	if err := s.users.RefreshGoogleLogin(ctx, user.ID, identity.AvatarURL, now); err != nil {
		return AuthResult{}, err
	}

	user.AvatarURL = identity.AvatarURL
	user.LastLoginAt = &now

	return s.issue(user)
}

func (s *GoogleService) issue(user models.User) (AuthResult, error) {
	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		AccessToken: token,
		User:        user,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
