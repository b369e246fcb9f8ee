package main

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/hibiken/asynq"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/tasks"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// NotificationRepository defines the interface for notification lookups
type NotificationRepository interface {
	// GetByID retrieves a notification by its ID
	//
	// If the notification does not exist, an error wrapping models.ErrNotFound will be returned.
	GetByID(ctx context.Context, id int) (*models.Notification, error)
}

// AccountRepository defines the interface for account lookups
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	//
	// If the account does not exist, an error wrapping models.ErrNotFound will be returned.
	GetByID(ctx context.Context, id int) (*models.Account, error)
}

// Sender delivers an e-mail
type Sender interface {
	Send(to, subject, body string) error
}

// Worker handles task processing
type Worker struct {
	logger           *zap.Logger
	notificationRepo NotificationRepository
	accountRepo      AccountRepository
	sender           Sender
}

// NewWorker creates a new worker instance
func NewWorker(logger *zap.Logger, notificationRepo NotificationRepository, accountRepo AccountRepository, sender Sender) *Worker {
	return &Worker{
		logger:           logger,
		notificationRepo: notificationRepo,
		accountRepo:      accountRepo,
		sender:           sender,
	}
}

// HandleNotificationEmail e-mails a stored notification to its recipient
func (w *Worker) HandleNotificationEmail(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseNotificationEmailPayload(t)
	if err != nil {
		// A malformed payload never succeeds on retry
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	n, err := w.notificationRepo.GetByID(ctx, payload.NotificationID)
	if err != nil {
		// Notification was deleted before processing
		if errors.Is(err, models.ErrNotFound) {
			w.logger.Warn("notification not found, skipping e-mail", zap.Int("notification_id", payload.NotificationID))
			return nil
		}
		return err
	}

	account, err := w.accountRepo.GetByID(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			w.logger.Warn("recipient not found, skipping e-mail", zap.Int("user_id", n.UserID))
			return nil
		}
		return err
	}
	if !account.IsActive || account.Email == "" {
		w.logger.Info("recipient cannot receive e-mail", zap.Int("user_id", n.UserID))
		return nil
	}

	if err := w.sender.Send(account.Email, n.Title, renderNotification(account, n)); err != nil {
		return err
	}

	w.logger.Info("Notification e-mail sent",
		zap.Int("notification_id", n.ID),
		zap.Int("user_id", n.UserID),
		zap.String("type", string(n.Type)),
	)
	return nil
}

func renderNotification(account *models.Account, n *models.Notification) string {
	name := account.Name
	if name == "" {
		name = account.Email
	}
	return fmt.Sprintf("<p>Hi %s,</p><p><strong>%s</strong></p><p>%s</p>",
		html.EscapeString(name),
		html.EscapeString(n.Title),
		html.EscapeString(n.Message),
	)
}

// smtpSender sends e-mails using gopkg.in/mail.v2
type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates an SMTP backed sender
func NewSMTPSender(host string, port int, username, password, from string) *smtpSender {
	return &smtpSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends an HTML e-mail
func (s *smtpSender) Send(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := mail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
