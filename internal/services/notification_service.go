package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/tasks"
	"go.uber.org/zap"
)

const (
	defaultNotificationCount = 20
	maxNotificationCount     = 100
	maxBroadcastRecipients   = 1000
)

// NotificationRepository is the interface that wraps methods for notifications table data access
type NotificationRepository interface {
	// Method Create inserts a notification and sets its ID.
	//
	// If some error occurs during data insert, the error will be returned.
	Create(ctx context.Context, n *models.Notification) error
	// Method GetByID retrieve a notification by its ID.
	//
	// If the notification does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Notification, error)
	// Method List retrieve a page of notifications of a user, newest first.
	//
	// "filter" parameter narrows the result by read state and type and selects the page.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	List(ctx context.Context, userID int, filter models.NotificationFilter) ([]models.Notification, error)
	// Method CountUnread counts unread notifications of a user.
	//
	// If some error occurs during data retrieve, the error will be returned together with 0.
	CountUnread(ctx context.Context, userID int) (int, error)
	// Method MarkRead marks a notification of a user as read at "at".
	//
	// If some error occurs during data update, the error will be returned.
	MarkRead(ctx context.Context, userID, id int, at time.Time) error
	// Method MarkAllRead marks every unread notification of a user as read and returns how many changed.
	//
	// If some error occurs during data update, the error will be returned together with 0.
	MarkAllRead(ctx context.Context, userID int, at time.Time) (int, error)
}

// TaskEnqueuer is the interface that wraps the Enqueue method of *asynq.Client
type TaskEnqueuer interface {
	// Method Enqueue puts a task into the queue.
	//
	// If the task cannot be enqueued, the error will be returned together with "nil" value.
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type notificationService struct {
	repo   NotificationRepository
	queue  TaskEnqueuer
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a new notification service.
// "queue" may be nil, in which case no e-mails are scheduled.
func NewNotificationService(repo NotificationRepository, queue TaskEnqueuer, logger *zap.Logger) *notificationService {
	return &notificationService{
		repo:   repo,
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}
}

// List returns a page of the user's notifications with the unread total
func (s *notificationService) List(ctx context.Context, userID int, filter models.NotificationFilter) (*models.NotificationList, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, fmt.Errorf("unknown notification type %q: %w", filter.Type, models.ErrValidation)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Count < 1 {
		filter.Count = defaultNotificationCount
	}
	if filter.Count > maxNotificationCount {
		filter.Count = maxNotificationCount
	}

	notifications, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &models.NotificationList{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

// MarkRead marks one of the user's notifications as read.
// Notifications of other users are reported as not found.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID int) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification %d: %w", notificationID, models.ErrNotFound)
	}
	if n.IsRead {
		return n, nil
	}

	at := s.now().UTC()
	if err := s.repo.MarkRead(ctx, userID, notificationID, at); err != nil {
		return nil, err
	}
	n.IsRead = true
	n.ReadAt = &at

	return n, nil
}

// MarkAllRead marks every unread notification of the user as read
func (s *notificationService) MarkAllRead(ctx context.Context, userID int) (int, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now().UTC())
}

// Create stores a notification requested by an administrator
func (s *notificationService) Create(ctx context.Context, req *models.CreateNotificationRequest) (*models.Notification, error) {
	if req.UserID <= 0 {
		return nil, fmt.Errorf("user_id is required: %w", models.ErrValidation)
	}
	n, err := s.build(req.UserID, req.Type, req.Priority, req.Title, req.Message, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.Notify(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Broadcast stores one notification per recipient and returns how many were created.
// Duplicate recipients are notified once.
func (s *notificationService) Broadcast(ctx context.Context, req *models.BroadcastNotificationRequest) (int, error) {
	if len(req.UserIDs) == 0 {
		return 0, fmt.Errorf("user_ids is required: %w", models.ErrValidation)
	}
	if len(req.UserIDs) > maxBroadcastRecipients {
		return 0, fmt.Errorf("at most %d recipients are allowed: %w", maxBroadcastRecipients, models.ErrValidation)
	}

	seen := make(map[int]struct{}, len(req.UserIDs))
	created := 0
	for _, userID := range req.UserIDs {
		if _, ok := seen[userID]; ok || userID <= 0 {
			continue
		}
		seen[userID] = struct{}{}

		n, err := s.build(userID, req.Type, req.Priority, req.Title, req.Message, req.CourseID)
		if err != nil {
			return created, err
		}
		if err := s.Notify(ctx, n); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

// Notify stores a notification and schedules its e-mail when the priority is high.
// A failure to enqueue the e-mail is logged and does not fail the call.
func (s *notificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if n.Priority == "" {
		n.Priority = defaultPriority(n.Type)
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if n.Priority != models.PriorityHigh || s.queue == nil {
		return nil
	}

	task, err := tasks.NewNotificationEmailTask(n.ID)
	if err != nil {
		s.logger.Error("failed to build notification task", zap.Int("notification_id", n.ID), zap.Error(err))
		return nil
	}
	if _, err := s.queue.Enqueue(task); err != nil {
		s.logger.Warn("failed to enqueue notification e-mail", zap.Int("notification_id", n.ID), zap.Error(err))
	}

	return nil
}

func (s *notificationService) build(userID int, t models.NotificationType, p models.Priority, title, message, courseID string) (*models.Notification, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("unknown notification type %q: %w", t, models.ErrValidation)
	}
	switch p {
	case "", models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
	default:
		return nil, fmt.Errorf("unknown priority %q: %w", p, models.ErrValidation)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", models.ErrValidation)
	}

	return &models.Notification{
		UserID:   userID,
		Type:     t,
		Priority: p,
		Title:    title,
		Message:  strings.TrimSpace(message),
		CourseID: courseID,
	}, nil
}

// defaultPriority returns the priority used when none is given
func defaultPriority(t models.NotificationType) models.Priority {
	switch t {
	case models.NotificationCourseCompleted, models.NotificationBadgeEarned, models.NotificationAchievement:
		return models.PriorityHigh
	case models.NotificationReminder, models.NotificationChapterCompleted:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}
