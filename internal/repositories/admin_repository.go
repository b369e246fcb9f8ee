package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

type adminRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *sql.DB, logger *zap.Logger) *adminRepository {
	return &adminRepository{
		db:     db,
		logger: logger,
	}
}

// GetDashboardStats counts users, enrollments, course completions and awarded badges
func (r *adminRepository) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM enrollments),
			(SELECT COUNT(*) FROM course_completions),
			(SELECT COUNT(*) FROM user_badges)
	`

	var stats models.DashboardStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.TotalEnrollments,
		&stats.CompletedCourses,
		&stats.BadgesAwarded,
	)
	if err != nil {
		r.logger.Error("failed to get dashboard stats", zap.Error(err))
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	return &stats, nil
}

// GetCourseActivity returns enrollment, completion and rating counters keyed by course id.
// Courses nobody has enrolled in or rated are absent.
func (r *adminRepository) GetCourseActivity(ctx context.Context) (map[string]models.CourseActivity, error) {
	query := `
		SELECT e.course_id, COUNT(*), COUNT(cc.user_id), COALESCE(SUM(ch.done), 0)
		FROM enrollments e
		LEFT JOIN course_completions cc ON cc.user_id = e.user_id AND cc.course_id = e.course_id
		LEFT JOIN (
			SELECT user_id, course_id, COUNT(*) AS done
			FROM chapter_completions
			GROUP BY user_id, course_id
		) ch ON ch.user_id = e.user_id AND ch.course_id = e.course_id
		GROUP BY e.course_id
		ORDER BY e.course_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to get course activity", zap.Error(err))
		return nil, fmt.Errorf("failed to get course activity: %w", err)
	}
	defer rows.Close()

	activity := make(map[string]models.CourseActivity)
	for rows.Next() {
		var a models.CourseActivity
		if err := rows.Scan(&a.CourseID, &a.Enrollments, &a.Completions, &a.ChapterCompletions); err != nil {
			return nil, fmt.Errorf("failed to scan course activity: %w", err)
		}
		activity[a.CourseID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course activity: %w", err)
	}

	ratingRows, err := r.db.QueryContext(ctx, `SELECT course_id, COUNT(*), SUM(rating) FROM course_ratings GROUP BY course_id`)
	if err != nil {
		r.logger.Error("failed to get course ratings", zap.Error(err))
		return nil, fmt.Errorf("failed to get course ratings: %w", err)
	}
	defer ratingRows.Close()

	for ratingRows.Next() {
		var courseID string
		var count, sum int
		if err := ratingRows.Scan(&courseID, &count, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan course rating: %w", err)
		}
		a := activity[courseID]
		a.CourseID = courseID
		a.Ratings = count
		a.RatingSum = sum
		activity[courseID] = a
	}
	if err := ratingRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course ratings: %w", err)
	}

	return activity, nil
}

// GetActivityDays returns per-day counters for every day since "since" that had any activity.
// Days without activity are absent.
func (r *adminRepository) GetActivityDays(ctx context.Context, since time.Time) ([]models.ActivityDay, error) {
	query := `
		SELECT day, COUNT(DISTINCT user_id), SUM(kind = 'enroll'), SUM(kind = 'chapter'), SUM(kind = 'course')
		FROM (
			SELECT activity_date AS day, user_id, 'active' AS kind FROM learning_activity WHERE activity_date >= ?
			UNION ALL
			SELECT DATE(enrolled_at), user_id, 'enroll' FROM enrollments WHERE enrolled_at >= ?
			UNION ALL
			SELECT DATE(completed_at), user_id, 'chapter' FROM chapter_completions WHERE completed_at >= ?
			UNION ALL
			SELECT DATE(completed_at), user_id, 'course' FROM course_completions WHERE completed_at >= ?
		) activity
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.QueryContext(ctx, query, since, since, since, since)
	if err != nil {
		r.logger.Error("failed to get activity report", zap.Error(err))
		return nil, fmt.Errorf("failed to get activity report: %w", err)
	}
	defer rows.Close()

	days := make([]models.ActivityDay, 0)
	for rows.Next() {
		var day time.Time
		var d models.ActivityDay
		if err := rows.Scan(&day, &d.ActiveLearners, &d.Enrollments, &d.ChaptersCompleted, &d.CoursesCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan activity day: %w", err)
		}
		d.Date = day.Format(time.DateOnly)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity days: %w", err)
	}

	return days, nil
}
