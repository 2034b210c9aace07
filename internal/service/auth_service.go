package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tutoria/auth/internal/ids"
	"tutoria/auth/internal/models"
	"tutoria/auth/internal/notify"
	"tutoria/auth/internal/repository"
	"tutoria/auth/internal/security"
)

// UserStore is the slice of the credential store the login flow needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user models.User) error
	RecordLoginFailure(ctx context.Context, id string, attempts int, lockedUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error
}

// Notifier sends fire-and-forget events; implementations never block and
// never report failure to the caller.
type Notifier interface {
	Dispatch(event notify.Event)
}

type AuthService struct {
	users         UserStore
	tokens        *security.TokenIssuer
	lockout       LockoutPolicy
	notifier      Notifier
	studentDomain string
	log           zerolog.Logger

	// verify is swappable so tests can observe that a locked account
	// never reaches password comparison.
	verify func(password string, hash []byte) (bool, error)
}

func NewAuthService(
	users UserStore,
	tokens *security.TokenIssuer,
	lockout LockoutPolicy,
	notifier Notifier,
	studentDomain string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		lockout:       lockout,
		notifier:      notifier,
		studentDomain: studentDomain,
		log:           log,
		verify:        security.VerifyPassword,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

type AuthResult struct {
	AccessToken string
	User        models.User
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" || input.Password == "" {
		return AuthResult{}, fmt.Errorf("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         s.defaultRole(input.Email),
		Status:       models.UserStatusActive,
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

type LoginInput struct {
	Email    string
	Password string
}

// Login runs the credential state machine: lockout check first, then
// account status, then password verification. A locked account never
// reaches the verifier.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	now := time.Now()

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if retryAfter, blocked := s.lockout.Evaluate(user, now); blocked {
		return AuthResult{}, &LockedError{RetryAfter: retryAfter}
	}

	switch user.Status {
	case models.UserStatusSuspended:
		return AuthResult{}, ErrAccountSuspended
	case models.UserStatusInactive:
		return AuthResult{}, ErrAccountInactive
	}

	ok, err := s.verify(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, s.recordFailure(ctx, user, now)
	}

	updated := s.lockout.RecordSuccess(user, now)
	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return AuthResult{}, err
	}

	return s.issue(updated)
}

func (s *AuthService) recordFailure(ctx context.Context, user models.User, now time.Time) error {
	updated := s.lockout.RecordFailure(user, now)

	// Two concurrent failures may both read the same counter and lose one
	// increment. The race only weakens the lockout, never strengthens it,
	// so the read-modify-write is kept as-is.
	if err := s.users.RecordLoginFailure(ctx, user.ID, updated.FailedLoginAttempts, updated.LockedUntil); err != nil {
		// The counter must advance durably before a domain outcome is
		// reported; otherwise lockout never engages while writes fail.
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("record login failure")
		return fmt.Errorf("record login failure: %w", err)
	}

	if _, blocked := s.lockout.Evaluate(updated, now); blocked {
		return &LockedError{RetryAfter: roundUpToMinute(s.lockout.Duration)}
	}
	return &CredentialsError{Remaining: s.lockout.AttemptsRemaining(updated)}
}

func (s *AuthService) issue(user models.User) (AuthResult, error) {
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

func (s *AuthService) defaultRole(email string) models.UserRole {
	if s.studentDomain != "" && strings.HasSuffix(email, "@"+s.studentDomain) {
		return models.UserRoleStudent
	}
	return models.UserRoleTutor
}
