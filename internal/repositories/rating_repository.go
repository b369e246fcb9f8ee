package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

type ratingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRatingRepository creates a new course rating repository
func NewRatingRepository(db *sql.DB, logger *zap.Logger) *ratingRepository {
	return &ratingRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert stores a rating, replacing an earlier rating of the same course by the same user
func (r *ratingRepository) Upsert(ctx context.Context, rating *models.CourseRating) error {
	query := `
		INSERT INTO course_ratings (user_id, course_id, rating, review)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE rating = VALUES(rating), review = VALUES(review)
	`

	_, err := r.db.ExecContext(ctx, query, rating.UserID, rating.CourseID, rating.Rating, rating.Review)
	if err != nil {
		r.logger.Error("failed to store course rating",
			zap.Error(err),
			zap.Int("user_id", rating.UserID),
			zap.String("course_id", rating.CourseID),
		)
		return fmt.Errorf("failed to store course rating: %w", err)
	}

	return nil
}

// CountAndSum returns the number of ratings of a course and the sum of their values
func (r *ratingRepository) CountAndSum(ctx context.Context, courseID string) (int, int, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM course_ratings WHERE course_id = ?`

	var count, sum int
	if err := r.db.QueryRowContext(ctx, query, courseID).Scan(&count, &sum); err != nil {
		r.logger.Error("failed to get course ratings", zap.Error(err), zap.String("course_id", courseID))
		return 0, 0, fmt.Errorf("failed to get course ratings: %w", err)
	}

	return count, sum, nil
}
