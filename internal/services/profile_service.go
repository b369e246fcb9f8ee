package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const maxNameLength = 100

// ProfileRepository is the interface that wraps methods for account self-service
type ProfileRepository interface {
	// Method GetByID retrieve an account by its ID.
	//
	// If the account does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Account, error)
	// Method GetByEmail retrieve an account by its email.
	//
	// If the account does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// Method UpdateProfile sets the name and email of an account.
	//
	// An email held by another account is reported with models.ErrConflict.
	UpdateProfile(ctx context.Context, id int, name, email string) error
	// Method UpdatePassword stores a new password hash.
	//
	// If some error occurs during data update, the error will be returned.
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

type profileService struct {
	repo   ProfileRepository
	logger *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(repo ProfileRepository, logger *zap.Logger) *profileService {
	return &profileService{
		repo:   repo,
		logger: logger,
	}
}

// UpdateProfile changes the name or email of the caller's account and returns the updated account
func (s *profileService) UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.Account, error) {
	if req.Name == nil && req.Email == nil {
		return nil, fmt.Errorf("at least one field must be provided: %w", models.ErrValidation)
	}

	account, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, email, err := s.checkProfileFields(ctx, account, req)
	if err != nil {
		return nil, err
	}
	if name == account.Name && email == account.Email {
		return account, nil
	}

	if err := s.repo.UpdateProfile(ctx, userID, name, email); err != nil {
		return nil, err
	}
	s.logger.Info("user profile updated",
		zap.Int("user_id", userID),
		zap.Bool("email_changed", email != account.Email),
	)
	account.Name = name
	account.Email = email

	return account, nil
}

// checkProfileFields normalizes the requested name and email, falling back to the stored values
func (s *profileService) checkProfileFields(ctx context.Context, account *models.Account, req *models.UpdateProfileRequest) (string, string, error) {
	name := account.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" || len([]rune(name)) > maxNameLength {
			return "", "", fmt.Errorf("name must be between 1 and %d characters: %w", maxNameLength, models.ErrValidation)
		}
	}

	email := account.Email
	if req.Email != nil {
		email = normalizeEmail(*req.Email)
		if !emailRegex.MatchString(email) {
			return "", "", fmt.Errorf("invalid email: %w", models.ErrValidation)
		}
		if email != account.Email {
			owner, err := s.repo.GetByEmail(ctx, email)
			switch {
			case err == nil && owner.ID != account.ID:
				return "", "", fmt.Errorf("email %s: %w", email, models.ErrConflict)
			case err != nil && !errors.Is(err, models.ErrNotFound):
				return "", "", fmt.Errorf("failed to check email: %w", err)
			}
		}
	}

	return name, email, nil
}

// ChangePassword replaces the password of the caller's account after verifying the current one
func (s *profileService) ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fmt.Errorf("current and new password are required: %w", models.ErrValidation)
	}

	for _, re := range passwordRegex {
		if !re.MatchString(req.NewPassword) {
			return fmt.Errorf("password must be at least 8 characters and contain a letter and a digit: %w", models.ErrValidation)
		}
	}
	if req.NewPassword == req.CurrentPassword {
		return fmt.Errorf("new password must differ from the current one: %w", models.ErrValidation)
	}

	account, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", models.ErrValidation)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(passwordHash)); err != nil {
		return err
	}
	s.logger.Info("user password changed", zap.Int("user_id", userID))

	return nil
}
