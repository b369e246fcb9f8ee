package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/learnhub/backend/internal/auth/service"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method Create inserts a new account and sets its ID.
	//
	// If the email is already taken, an error wrapping models.ErrConflict will be returned.
	Create(ctx context.Context, account *models.Account) error
	// Method GetByID retrieve an account by its ID.
	//
	// If the account does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Account, error)
	// Method GetByEmail retrieve an account by its email.
	//
	// If the account does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// Method ExistsByEmail checks whether an account with the email exists.
	//
	// If some error occurs during data retrieve, the error will be returned together with "false".
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var passwordRegex = []*regexp.Regexp{
	regexp.MustCompile(`.{8,}`),
	regexp.MustCompile(`[a-zA-Z]`),
	regexp.MustCompile(`[0-9]`),
}

type authService struct {
	repo           UserRepository
	tokenGenerator *service.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(repo UserRepository, tokenGenerator *service.TokenGenerator, logger *zap.Logger) *authService {
	return &authService{
		repo:           repo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// Register creates an account and returns an access token for it.
//
// The role defaults to student; the admin role cannot be requested at registration.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", models.ErrValidation)
	}

	email := normalizeEmail(req.Email)
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("invalid email: %w", models.ErrValidation)
	}

	for _, re := range passwordRegex {
		if !re.MatchString(req.Password) {
			return nil, fmt.Errorf("password must be at least 8 characters and contain a letter and a digit: %w", models.ErrValidation)
		}
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if !role.IsValid() || role == models.RoleAdmin {
		return nil, fmt.Errorf("role %q cannot be requested: %w", role, models.ErrValidation)
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email %s: %w", email, models.ErrConflict)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         role,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int("user_id", account.ID), zap.String("role", string(role)))

	return s.respond(account)
}

// Login verifies the credentials and returns an access token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", models.ErrValidation)
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}

	if !account.IsActive {
		return nil, models.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrUnauthorized
	}

	return s.respond(account)
}

// Me returns the account of the authenticated user
func (s *authService) Me(ctx context.Context, userID int) (*models.Account, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *authService) respond(account *models.Account) (*models.AuthResponse, error) {
	token, err := s.tokenGenerator.GenerateAccessToken(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: account}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
