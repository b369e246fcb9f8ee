package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// userRepository implements UserRepository
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new account into the database
func (r *userRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, account.Name, account.Email, account.PasswordHash, account.Role)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("email %s: %w", account.Email, models.ErrConflict)
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	account.ID = int(id)
	account.IsActive = true
	return nil
}

const accountColumns = `id, name, email, password_hash, role, is_active, created_at`

// GetByID retrieves an account by id
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = ? LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get user by id", zap.Error(err), zap.Int("user_id", id))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return account, nil
}

// GetByEmail retrieves an account by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE email = ? LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return account, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// UpdateRole changes the role of an account
func (r *userRepository) UpdateRole(ctx context.Context, id int, role models.Role) error {
	query := `UPDATE users SET role = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, role, id); err != nil {
		r.logger.Error("failed to update user role", zap.Error(err), zap.Int("user_id", id))
		return fmt.Errorf("failed to update user role: %w", err)
	}

	return nil
}

// SetActive enables or disables an account
func (r *userRepository) SetActive(ctx context.Context, id int, active bool) error {
	query := `UPDATE users SET is_active = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, active, id); err != nil {
		r.logger.Error("failed to update user status", zap.Error(err), zap.Int("user_id", id))
		return fmt.Errorf("failed to update user status: %w", err)
	}

	return nil
}

// UpdateProfile changes the name and email of an account
func (r *userRepository) UpdateProfile(ctx context.Context, id int, name, email string) error {
	query := `UPDATE users SET name = ?, email = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, name, email, id); err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("email %s: %w", email, models.ErrConflict)
		}
		r.logger.Error("failed to update user profile", zap.Error(err), zap.Int("user_id", id))
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	return nil
}

// UpdatePassword stores a new password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		r.logger.Error("failed to update user password", zap.Error(err), zap.Int("user_id", id))
		return fmt.Errorf("failed to update user password: %w", err)
	}

	return nil
}

// List retrieves a page of accounts ordered by id, with optional role, status and search filters.
// The search matches name or email.
func (r *userRepository) List(ctx context.Context, filter models.UserListFilter) ([]models.Account, error) {
	var conditions []string
	var args []any

	if filter.Role != "" {
		conditions = append(conditions, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, "is_active = ?")
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, "(name LIKE ? OR email LIKE ?)")
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + accountColumns + ` FROM users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, filter.Count, (filter.Page-1)*filter.Count)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return accounts, nil
}

// ListActiveIDs returns the ids of all active accounts
func (r *userRepository) ListActiveIDs(ctx context.Context) ([]int, error) {
	query := `SELECT id FROM users WHERE is_active = TRUE ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list active users", zap.Error(err))
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return ids, nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.IsActive,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}
