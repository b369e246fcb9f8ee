package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

type notificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *notificationRepository {
	return &notificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a notification and sets its id
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, priority, title, message, course_id, badge_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		n.UserID,
		n.Type,
		n.Priority,
		n.Title,
		n.Message,
		nullString(n.CourseID),
		nullString(n.BadgeID),
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create notification", zap.Error(err), zap.Int("user_id", n.UserID))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = int(id)
	return nil
}

const notificationColumns = `id, user_id, type, priority, title, message, course_id, badge_id, is_read, read_at, created_at`

// GetByID retrieves a notification by id
func (r *notificationRepository) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ? LIMIT 1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notification %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get notification", zap.Error(err), zap.Int("notification_id", id))
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// List retrieves a page of notifications of a user, newest first
func (r *notificationRepository) List(ctx context.Context, userID int, filter models.NotificationFilter) ([]models.Notification, error) {
	whereClauses := []string{"user_id = ?"}
	args := []any{userID}

	if filter.UnreadOnly {
		whereClauses = append(whereClauses, "is_read = FALSE")
	}
	if filter.Type != "" {
		whereClauses = append(whereClauses, "type = ?")
		args = append(args, filter.Type)
	}

	offset := (filter.Page - 1) * filter.Count
	args = append(args, filter.Count, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, notificationColumns, strings.Join(whereClauses, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list notifications", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// CountUnread counts unread notifications of a user
func (r *notificationRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		r.logger.Error("failed to count unread notifications", zap.Error(err), zap.Int("user_id", userID))
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkRead marks one notification of a user as read
func (r *notificationRepository) MarkRead(ctx context.Context, userID, id int, at time.Time) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = ?
		WHERE id = ? AND user_id = ? AND is_read = FALSE
	`

	if _, err := r.db.ExecContext(ctx, query, at, id, userID); err != nil {
		r.logger.Error("failed to mark notification read", zap.Error(err), zap.Int("notification_id", id))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

// MarkAllRead marks every unread notification of a user as read and returns how many changed
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int, at time.Time) (int, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = ?
		WHERE user_id = ? AND is_read = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, at, userID)
	if err != nil {
		r.logger.Error("failed to mark all notifications read", zap.Error(err), zap.Int("user_id", userID))
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(n), nil
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var courseID, badgeID sql.NullString
	var readAt sql.NullTime

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Priority,
		&n.Title,
		&n.Message,
		&courseID,
		&badgeID,
		&n.IsRead,
		&readAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.CourseID = courseID.String
	n.BadgeID = badgeID.String
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}

	return &n, nil
}

// nullString maps an empty string to SQL NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
