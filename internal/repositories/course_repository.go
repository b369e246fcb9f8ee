package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

type courseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB, logger *zap.Logger) *courseRepository {
	return &courseRepository{
		db:     db,
		logger: logger,
	}
}

const courseColumns = `
	c.id, c.title, c.description, c.category, c.difficulty, c.duration_minutes,
	b.id, b.name, b.description, b.icon, b.rarity
	FROM courses c
	LEFT JOIN course_badges b ON b.course_id = c.id`

// ListCourses retrieves courses with their chapters and course badge
func (r *courseRepository) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	var whereClauses []string
	var args []any

	if filter.Category != "" {
		whereClauses = append(whereClauses, "c.category = ?")
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		whereClauses = append(whereClauses, "(c.title LIKE ? OR c.description LIKE ?)")
		args = append(args, "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY c.title, c.id", courseColumns, whereClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query courses", zap.Error(err))
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	if len(courses) == 0 {
		return courses, nil
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	chapters, err := r.loadChapters(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i].Chapters = chapters[courses[i].ID]
	}

	return courses, nil
}

// GetCourse retrieves one course with its chapters in unlock order
func (r *courseRepository) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s WHERE c.id = ? LIMIT 1", courseColumns)

	course, err := scanCourse(r.db.QueryRowContext(ctx, query, courseID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %q: %w", courseID, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get course", zap.Error(err), zap.String("course_id", courseID))
		return nil, err
	}

	chapters, err := r.loadChapters(ctx, []string{courseID})
	if err != nil {
		return nil, err
	}
	course.Chapters = chapters[courseID]

	return course, nil
}

// loadChapters returns chapters grouped by course id, ordered by position
func (r *courseRepository) loadChapters(ctx context.Context, courseIDs []string) (map[string][]models.Chapter, error) {
	query := fmt.Sprintf(`
		SELECT course_id, id, title, description, content_type, content, duration_minutes
		FROM chapters
		WHERE course_id IN (%s)
		ORDER BY course_id, position
	`, placeholders(len(courseIDs)))

	args := make([]any, 0, len(courseIDs))
	for _, id := range courseIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query chapters", zap.Error(err))
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.Chapter, len(courseIDs))
	for _, id := range courseIDs {
		result[id] = []models.Chapter{}
	}
	for rows.Next() {
		var courseID string
		var ch models.Chapter
		if err := rows.Scan(&courseID, &ch.ID, &ch.Title, &ch.Description, &ch.ContentType, &ch.Content, &ch.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		result[courseID] = append(result[courseID], ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chapters: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var course models.Course
	var badgeID, badgeName, badgeDescription, badgeIcon, badgeRarity sql.NullString

	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Category,
		&course.Difficulty,
		&course.DurationMinutes,
		&badgeID,
		&badgeName,
		&badgeDescription,
		&badgeIcon,
		&badgeRarity,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}

	if badgeID.Valid {
		course.Badge = &models.BadgeDefinition{
			ID:          badgeID.String,
			Name:        badgeName.String,
			Description: badgeDescription.String,
			Icon:        badgeIcon.String,
			Rarity:      models.Rarity(badgeRarity.String),
			CourseID:    course.ID,
		}
	}

	return &course, nil
}
