package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

type enrollmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB, logger *zap.Logger) *enrollmentRepository {
	return &enrollmentRepository{
		db:     db,
		logger: logger,
	}
}

// Ensure creates an active enrollment unless one exists; it reports whether a row was created
func (r *enrollmentRepository) Ensure(ctx context.Context, userID int, courseID string) (bool, error) {
	query := `
		INSERT IGNORE INTO enrollments (user_id, course_id, status)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, userID, courseID, models.EnrollmentStatusActive)
	if err != nil {
		r.logger.Error("failed to create enrollment", zap.Error(err), zap.Int("user_id", userID), zap.String("course_id", courseID))
		return false, fmt.Errorf("failed to create enrollment: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n > 0, nil
}

// Get retrieves the enrollment of a user in a course
func (r *enrollmentRepository) Get(ctx context.Context, userID int, courseID string) (*models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, status, enrolled_at
		FROM enrollments
		WHERE user_id = ? AND course_id = ?
		LIMIT 1
	`

	var e models.Enrollment
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.EnrolledAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("enrollment of user %d in %q: %w", userID, courseID, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get enrollment", zap.Error(err))
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return &e, nil
}

// ListByUser retrieves the enrollments of a user, newest first
func (r *enrollmentRepository) ListByUser(ctx context.Context, userID int) ([]models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, status, enrolled_at
		FROM enrollments
		WHERE user_id = ?
		ORDER BY enrolled_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list enrollments", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]models.Enrollment, 0)
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.EnrolledAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return enrollments, nil
}

// UpdateStatus sets the stored status of an enrollment
func (r *enrollmentRepository) UpdateStatus(ctx context.Context, userID int, courseID string, status models.EnrollmentStatus) error {
	query := `UPDATE enrollments SET status = ? WHERE user_id = ? AND course_id = ?`

	if _, err := r.db.ExecContext(ctx, query, status, userID, courseID); err != nil {
		r.logger.Error("failed to update enrollment status", zap.Error(err))
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}

	return nil
}
