package models

import "time"

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationNewCourse        NotificationType = "new_course"
	NotificationCourseCompleted  NotificationType = "course_completed"
	NotificationBadgeEarned      NotificationType = "badge_earned"
	NotificationChapterCompleted NotificationType = "chapter_completed"
	NotificationEnrollment       NotificationType = "enrollment"
	NotificationReminder         NotificationType = "reminder"
	NotificationContentUpdate    NotificationType = "content_update"
	NotificationAchievement      NotificationType = "achievement"
	NotificationEvent            NotificationType = "event"
)

// IsValid reports whether the type is known
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationNewCourse, NotificationCourseCompleted, NotificationBadgeEarned,
		NotificationChapterCompleted, NotificationEnrollment, NotificationReminder,
		NotificationContentUpdate, NotificationAchievement, NotificationEvent:
		return true
	}
	return false
}

// Priority of a notification
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Notification is a user-facing message
type Notification struct {
	ID        int              `json:"id"`
	UserID    int              `json:"userId"`
	Type      NotificationType `json:"type"`
	Priority  Priority         `json:"priority"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CourseID  string           `json:"courseId,omitempty"`
	BadgeID   string           `json:"badgeId,omitempty"`
	IsRead    bool             `json:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationFilter narrows notification listings
type NotificationFilter struct {
	UnreadOnly bool
	Type       NotificationType
	Page       int
	Count      int
}

// NotificationList is a page of notifications with the unread total
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// CreateNotificationRequest represents an admin request to notify one user
type CreateNotificationRequest struct {
	UserID   int              `json:"user_id"`
	Type     NotificationType `json:"type"`
	Priority Priority         `json:"priority"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	CourseID string           `json:"course_id,omitempty"`
}

// BroadcastNotificationRequest represents an admin request to notify many users
type BroadcastNotificationRequest struct {
	UserIDs  []int            `json:"user_ids"`
	Type     NotificationType `json:"type"`
	Priority Priority         `json:"priority"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	CourseID string           `json:"course_id,omitempty"`
}
