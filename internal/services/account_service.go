package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/pkg/errorbank"
)

// ProfileInput is an edit of the signed-in user's own profile.
type ProfileInput struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=30"`
}

// AccountService lets a signed-in user manage their own account.
type AccountService struct {
	userRepo repositories.UserRepository
	notifier AccountNotifier
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(userRepo repositories.UserRepository, notifier AccountNotifier, logger *zap.Logger) *AccountService {
	return &AccountService{userRepo: userRepo, notifier: notifier, logger: logger}
}

// Profile returns the account of userID.
func (s *AccountService) Profile(userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, storeError(err, "account not found", "")
	}
	return user, nil
}

// UpdateProfile changes name, email and phone. The email must stay unique.
func (s *AccountService) UpdateProfile(userID string, in ProfileInput) (*models.User, error) {
	user, err := s.Profile(userID)
	if err != nil {
		return nil, err
	}
	user.Name = strings.TrimSpace(in.Name)
	user.Email = strings.ToLower(strings.TrimSpace(in.Email))
	user.Phone = strings.TrimSpace(in.Phone)

	if err := s.userRepo.UpdateProfile(user); err != nil {
		return nil, storeError(err, "account not found", fmt.Sprintf("email '%s' already registered", user.Email))
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AccountService) ChangePassword(userID, current, newPassword string) error {
	user, err := s.Profile(userID)
	if err != nil {
		return err
	}
	if !passwordMatches(user.Password, current) {
		return errorbank.Unauthorized("current password is incorrect", errorbank.WithCause(ErrInvalidCredentials))
	}
	if !IsStrongPassword(newPassword) {
		return errorbank.BadRequest("password must be at least 8 characters and include upper case, lower case, a digit and a symbol",
			errorbank.WithCause(ErrWeakPassword))
	}
	if passwordMatches(user.Password, newPassword) {
		return errorbank.BadRequest("the new password must be different from the current one",
			errorbank.WithCause(ErrPasswordUnchanged))
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return errorbank.Internal("failed to change password", errorbank.WithCause(err))
	}
	if err := s.userRepo.UpdatePassword(user.ID, hash); err != nil {
		return storeError(err, "account not found", "")
	}
	s.logger.Info("password changed", zap.String("user_id", user.ID))

	if err := s.notifier.PasswordChanged(user); err != nil {
		s.logger.Warn("password change confirmation not sent", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}
