package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

const activityDateLayout = "2006-01-02"

type progressRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB, logger *zap.Logger) *progressRepository {
	return &progressRepository{
		db:     db,
		logger: logger,
	}
}

// GetUserState loads completed chapters, completed courses and earned badges of a user.
// A user without any records gets an empty state.
func (r *progressRepository) GetUserState(ctx context.Context, userID int) (*models.User, error) {
	user := &models.User{
		ID:               userID,
		CompletedCourses: []models.CompletedCourse{},
		CurrentProgress:  map[string]*models.CourseProgress{},
		Badges:           []models.EarnedBadge{},
	}

	if err := r.loadChapterCompletions(ctx, user); err != nil {
		return nil, err
	}
	if err := r.loadCourseCompletions(ctx, user); err != nil {
		return nil, err
	}
	if err := r.loadBadges(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *progressRepository) loadChapterCompletions(ctx context.Context, user *models.User) error {
	query := `
		SELECT course_id, chapter_id
		FROM chapter_completions
		WHERE user_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		r.logger.Error("failed to query chapter completions", zap.Error(err), zap.Int("user_id", user.ID))
		return fmt.Errorf("failed to query chapter completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var courseID, chapterID string
		if err := rows.Scan(&courseID, &chapterID); err != nil {
			return fmt.Errorf("failed to scan chapter completion: %w", err)
		}
		p, ok := user.CurrentProgress[courseID]
		if !ok {
			p = &models.CourseProgress{}
			user.CurrentProgress[courseID] = p
		}
		p.CompletedChapters = append(p.CompletedChapters, chapterID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating chapter completions: %w", err)
	}

	return nil
}

func (r *progressRepository) loadCourseCompletions(ctx context.Context, user *models.User) error {
	query := `
		SELECT course_id, completed_at
		FROM course_completions
		WHERE user_id = ?
		ORDER BY completed_at, course_id
	`

	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		r.logger.Error("failed to query course completions", zap.Error(err), zap.Int("user_id", user.ID))
		return fmt.Errorf("failed to query course completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cc models.CompletedCourse
		if err := rows.Scan(&cc.CourseID, &cc.CompletedAt); err != nil {
			return fmt.Errorf("failed to scan course completion: %w", err)
		}
		user.CompletedCourses = append(user.CompletedCourses, cc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating course completions: %w", err)
	}

	return nil
}

func (r *progressRepository) loadBadges(ctx context.Context, user *models.User) error {
	query := `
		SELECT badge_id, name, description, icon, rarity, course_id, earned_at
		FROM user_badges
		WHERE user_id = ?
		ORDER BY earned_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		r.logger.Error("failed to query user badges", zap.Error(err), zap.Int("user_id", user.ID))
		return fmt.Errorf("failed to query user badges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.EarnedBadge
		var courseID sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Rarity, &courseID, &b.EarnedAt); err != nil {
			return fmt.Errorf("failed to scan user badge: %w", err)
		}
		b.CourseID = courseID.String
		user.Badges = append(user.Badges, b)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating user badges: %w", err)
	}

	return nil
}

// RecordCompletion stores a chapter completion and its consequences in one transaction.
// Every insert ignores rows that already exist, so concurrent duplicates record once.
func (r *progressRepository) RecordCompletion(ctx context.Context, userID int, event models.CompletionEvent) (*models.CompletionOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	outcome := &models.CompletionOutcome{}

	inserted, err := execInserted(ctx, tx, `
		INSERT IGNORE INTO chapter_completions (user_id, course_id, chapter_id, completed_at)
		VALUES (?, ?, ?, ?)
	`, userID, event.CourseID, event.ChapterID, event.CompletedAt)
	if err != nil {
		r.logger.Error("failed to insert chapter completion", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to insert chapter completion: %w", err)
	}
	outcome.ChapterRecorded = inserted

	if inserted {
		if _, err := tx.ExecContext(ctx, `
			INSERT IGNORE INTO learning_activity (user_id, activity_date)
			VALUES (?, ?)
		`, userID, event.CompletedAt.UTC().Format(activityDateLayout)); err != nil {
			return nil, fmt.Errorf("failed to insert learning activity: %w", err)
		}
	}

	if event.CourseCompleted {
		inserted, err := execInserted(ctx, tx, `
			INSERT IGNORE INTO course_completions (user_id, course_id, completed_at)
			VALUES (?, ?, ?)
		`, userID, event.CourseID, event.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert course completion: %w", err)
		}
		outcome.CourseCompleted = inserted
	}

	if event.Badge != nil {
		inserted, err := insertBadge(ctx, tx, userID, *event.Badge)
		if err != nil {
			return nil, err
		}
		if inserted {
			badge := *event.Badge
			outcome.BadgeEarned = &badge
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return outcome, nil
}

// AwardBadges stores earned badges and returns the ones that were not held yet
func (r *progressRepository) AwardBadges(ctx context.Context, userID int, badges []models.EarnedBadge) ([]models.EarnedBadge, error) {
	if len(badges) == 0 {
		return []models.EarnedBadge{}, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	awarded := make([]models.EarnedBadge, 0, len(badges))
	for _, b := range badges {
		inserted, err := insertBadge(ctx, tx, userID, b)
		if err != nil {
			r.logger.Error("failed to award badge", zap.Error(err), zap.Int("user_id", userID), zap.String("badge_id", b.ID))
			return nil, err
		}
		if inserted {
			awarded = append(awarded, b)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return awarded, nil
}

// ListActivityDays returns the UTC days with learning activity on or after since
func (r *progressRepository) ListActivityDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	query := `
		SELECT activity_date
		FROM learning_activity
		WHERE user_id = ? AND activity_date >= ?
		ORDER BY activity_date
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since.UTC().Format(activityDateLayout))
	if err != nil {
		r.logger.Error("failed to query learning activity", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to query learning activity: %w", err)
	}
	defer rows.Close()

	days := make([]time.Time, 0)
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan learning activity: %w", err)
		}
		days = append(days, day.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learning activity: %w", err)
	}

	return days, nil
}

func insertBadge(ctx context.Context, tx *sql.Tx, userID int, b models.EarnedBadge) (bool, error) {
	var courseID any
	if b.CourseID != "" {
		courseID = b.CourseID
	}

	inserted, err := execInserted(ctx, tx, `
		INSERT IGNORE INTO user_badges (user_id, badge_id, name, description, icon, rarity, course_id, earned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, b.ID, b.Name, b.Description, b.Icon, b.Rarity, courseID, b.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert user badge: %w", err)
	}
	return inserted, nil
}

// execInserted runs an insert and reports whether a row was written
func execInserted(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
