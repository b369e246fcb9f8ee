// Package tasks defines the background tasks exchanged through the asynq queue
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// TypeNotificationEmail delivers a stored notification by e-mail
	TypeNotificationEmail = "notification:email"
	// QueueNotifications is the queue notification tasks are sent to
	QueueNotifications = "notifications"
)

// NotificationEmailPayload is the payload of TypeNotificationEmail
type NotificationEmailPayload struct {
	NotificationID int `json:"notification_id"`
}

// NewNotificationEmailTask builds the task delivering notification id
func NewNotificationEmailTask(notificationID int) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationEmailPayload{NotificationID: notificationID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationEmail, payload, asynq.Queue(QueueNotifications), asynq.MaxRetry(5)), nil
}

// ParseNotificationEmailPayload decodes the payload of a TypeNotificationEmail task
func ParseNotificationEmailPayload(t *asynq.Task) (NotificationEmailPayload, error) {
	var p NotificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("failed to decode notification payload: %w", err)
	}
	if p.NotificationID <= 0 {
		return p, fmt.Errorf("invalid notification id %d", p.NotificationID)
	}
	return p, nil
}
