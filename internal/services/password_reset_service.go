package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"aralis/internal/metrics"
	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/pkg/errorbank"
)

// resetTokenBytes is the entropy of a reset token; it is hex encoded to 64 characters.
const resetTokenBytes = 32

// PasswordResetService issues, validates and consumes password reset tokens.
type PasswordResetService struct {
	users    repositories.UserRepository
	tokens   repositories.PasswordResetRepository
	notifier AccountNotifier
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(users repositories.UserRepository, tokens repositories.PasswordResetRepository, notifier AccountNotifier, ttl time.Duration, met *metrics.Metrics, logger *zap.Logger) *PasswordResetService {
	return &PasswordResetService{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		ttl:      ttl,
		now:      time.Now,
		newToken: generateResetToken,
		metrics:  met,
		logger:   logger,
	}
}

// SetClock replaces the clock used for expiry.
func (s *PasswordResetService) SetClock(now func() time.Time) {
	s.now = now
}

func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Issue emails a fresh reset link to the account registered with email and
// invalidates every earlier token for it. An unknown email is not an error so
// callers cannot tell which addresses have accounts.
func (s *PasswordResetService) Issue(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(email)
	if errors.Is(err, repositories.ErrNotFound) {
		s.logger.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return errorbank.Internal("failed to look up account", errorbank.WithCause(err))
	}

	token, err := s.newToken()
	if err != nil {
		return errorbank.Internal("failed to generate reset token", errorbank.WithCause(err))
	}

	now := s.now()
	record := &models.PasswordResetToken{
		Email:     user.Email,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.tokens.Replace(record); err != nil {
		return errorbank.Internal("failed to store reset token", errorbank.WithCause(err))
	}
	s.metrics.ResetTokensIssued.Inc()

	if err := s.notifier.PasswordReset(user, token); err != nil {
		return errorbank.Internal("we could not send the reset email, please try again",
			errorbank.WithCause(fmt.Errorf("%w: %v", ErrResetMailFailed, err)))
	}
	s.logger.Info("password reset token issued", zap.String("user_id", user.ID), zap.Time("expires_at", record.ExpiresAt))
	return nil
}

// Validate reports whether token can still be used, without changing anything.
func (s *PasswordResetService) Validate(token string) (*models.PasswordResetToken, error) {
	return s.lookup(token, s.now())
}

// Reset sets newPassword on the account that owns token and marks the token used,
// both in one transaction. The token stays usable if the password is unchanged.
func (s *PasswordResetService) Reset(token, newPassword string) error {
	if !IsStrongPassword(newPassword) {
		return errorbank.BadRequest("password must be at least 8 characters and include upper case, lower case, a digit and a symbol",
			errorbank.WithCause(ErrWeakPassword), errorbank.WithDetail("reason", "weak_password"))
	}

	now := s.now()
	record, err := s.lookup(token, now)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(record.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return tokenError(ErrTokenInvalid)
	}
	if err != nil {
		return errorbank.Internal("failed to look up account", errorbank.WithCause(err))
	}

	if passwordMatches(user.Password, newPassword) {
		return errorbank.BadRequest("the new password must be different from the current one",
			errorbank.WithCause(ErrPasswordUnchanged), errorbank.WithDetail("reason", "unchanged"))
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}
	if err := s.tokens.Consume(record.ID, user.ID, hash, now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Consumed by a concurrent request between lookup and commit.
			return tokenError(ErrTokenUsed)
		}
		return errorbank.Internal("failed to reset password", errorbank.WithCause(err))
	}
	s.metrics.PasswordResets.Inc()
	s.logger.Info("password reset completed", zap.String("user_id", user.ID))

	if err := s.notifier.PasswordChanged(user); err != nil {
		s.logger.Warn("password change confirmation not sent", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// lookup finds a usable token, and on a miss looks again by the bare token to say why it is unusable.
func (s *PasswordResetService) lookup(token string, now time.Time) (*models.PasswordResetToken, error) {
	if strings.TrimSpace(token) == "" {
		return nil, tokenError(ErrTokenInvalid)
	}

	record, err := s.tokens.FindUsable(token, now)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, errorbank.Internal("failed to look up reset token", errorbank.WithCause(err))
	}

	record, err = s.tokens.FindByToken(token)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, tokenError(ErrTokenInvalid)
	case err != nil:
		return nil, errorbank.Internal("failed to look up reset token", errorbank.WithCause(err))
	case record.Used:
		return nil, tokenError(ErrTokenUsed)
	case record.Expired(now):
		return nil, tokenError(ErrTokenExpired)
	}
	return nil, tokenError(ErrTokenInvalid)
}

func tokenError(reason error) error {
	var message, code string
	switch reason {
	case ErrTokenUsed:
		message, code = "this reset link has already been used", "used"
	case ErrTokenExpired:
		message, code = "this reset link has expired, please request a new one", "expired"
	default:
		message, code = "this reset link is invalid", "invalid"
	}
	return errorbank.BadRequest(message, errorbank.WithCause(reason), errorbank.WithDetail("reason", code))
}
