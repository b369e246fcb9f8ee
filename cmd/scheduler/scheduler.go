package main

import (
	"context"
	"fmt"
	"time"

	"github.com/learnhub/backend/internal/badges"
	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// streakLookback bounds the activity history read for a streak reminder
const streakLookback = 60 * 24 * time.Hour

// UserLister defines methods for listing learners
type UserLister interface {
	// ListActiveIDs returns ids of all active users
	ListActiveIDs(ctx context.Context) ([]int, error)
}

// ActivitySource defines methods for reading learning activity
type ActivitySource interface {
	// ListActivityDays returns the UTC days with learning activity on or after "since"
	ListActivityDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error)
}

// Notifier stores notifications and schedules their delivery
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// AchievementChecker re-evaluates badge rules of a user
type AchievementChecker interface {
	CheckAchievements(ctx context.Context, userID int) ([]models.EarnedBadge, error)
}

// Scheduler runs the periodic learner jobs
type Scheduler struct {
	cron         *cron.Cron
	users        UserLister
	activity     ActivitySource
	notifier     Notifier
	achievements AchievementChecker
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(users UserLister, activity ActivitySource, notifier Notifier, achievements AchievementChecker, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		users:        users,
		activity:     activity,
		notifier:     notifier,
		achievements: achievements,
		logger:       logger,
		now:          time.Now,
	}
}

// Register adds the jobs with their cron expressions
func (s *Scheduler) Register(streakReminderSpec, achievementSweepSpec string) error {
	if _, err := s.cron.AddFunc(streakReminderSpec, func() { s.remindStreaks(context.Background()) }); err != nil {
		return fmt.Errorf("invalid streak reminder schedule %q: %w", streakReminderSpec, err)
	}
	if _, err := s.cron.AddFunc(achievementSweepSpec, func() { s.sweepAchievements(context.Background()) }); err != nil {
		return fmt.Errorf("invalid achievement sweep schedule %q: %w", achievementSweepSpec, err)
	}
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// remindStreaks notifies users whose streak ends today unless they learn again.
// It returns the number of reminders sent.
func (s *Scheduler) remindStreaks(ctx context.Context) int {
	ids, err := s.users.ListActiveIDs(ctx)
	if err != nil {
		s.logger.Error("Failed to list users for streak reminders", zap.Error(err))
		return 0
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	sent := 0
	for _, id := range ids {
		days, err := s.activity.ListActivityDays(ctx, id, today.Add(-streakLookback))
		if err != nil {
			s.logger.Error("Failed to read learning activity", zap.Int("user_id", id), zap.Error(err))
			continue
		}
		if activeOn(days, today) {
			continue
		}
		streak := badges.CurrentStreak(days, now)
		if streak == 0 {
			continue
		}

		n := &models.Notification{
			UserID:   id,
			Type:     models.NotificationReminder,
			Priority: models.PriorityMedium,
			Title:    "Keep your streak going",
			Message:  fmt.Sprintf("You have learned %d day(s) in a row. Complete a chapter today to keep it.", streak),
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Error("Failed to send streak reminder", zap.Int("user_id", id), zap.Error(err))
			continue
		}
		sent++
	}

	s.logger.Info("Streak reminders sent", zap.Int("users", len(ids)), zap.Int("sent", sent))
	return sent
}

// sweepAchievements re-evaluates badge rules of every active user.
// It returns the number of badges awarded.
func (s *Scheduler) sweepAchievements(ctx context.Context) int {
	ids, err := s.users.ListActiveIDs(ctx)
	if err != nil {
		s.logger.Error("Failed to list users for achievement sweep", zap.Error(err))
		return 0
	}

	awarded := 0
	for _, id := range ids {
		earned, err := s.achievements.CheckAchievements(ctx, id)
		if err != nil {
			s.logger.Error("Failed to check achievements", zap.Int("user_id", id), zap.Error(err))
			continue
		}
		awarded += len(earned)
	}

	s.logger.Info("Achievement sweep finished", zap.Int("users", len(ids)), zap.Int("awarded", awarded))
	return awarded
}

// checkDataSource rejects data sources whose progress cannot be read from this process.
// The memory source lives inside the API process, so a separate scheduler would only see an empty store.
func checkDataSource(kind string) error {
	if kind == config.DataSourceMemory {
		return fmt.Errorf("data source %q is not shared with the API process, use %q or %q",
			kind, config.DataSourceSQL, config.DataSourceRemote)
	}
	return nil
}

func activeOn(days []time.Time, day time.Time) bool {
	for _, d := range days {
		if d.UTC().Truncate(24 * time.Hour).Equal(day) {
			return true
		}
	}
	return false
}
