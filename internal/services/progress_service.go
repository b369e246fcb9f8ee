package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/learnhub/backend/internal/badges"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/progress"
	"go.uber.org/zap"
)

// activityWindow bounds the learning activity loaded for streaks
const activityWindow = 366 * 24 * time.Hour

// ProgressStore is the interface that wraps methods for learner progress persistence.
//
// The store is the system of record: the service never trusts its local copy after a write
// and always reads the state back. Implementations must make every write idempotent.
type ProgressStore interface {
	// Method GetUserState retrieve completed chapters, completed courses and earned badges of a user.
	//
	// A user without any progress gets an empty state.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetUserState(ctx context.Context, userID int) (*models.User, error)
	// Method RecordCompletion stores a chapter completion with its consequences.
	//
	// "event" carries the chapter, whether the course became complete and the course badge to grant.
	// Parts that were already stored are skipped and reported as false/nil in the outcome.
	// Remote stores report network failures wrapping models.ErrTransientNetwork.
	RecordCompletion(ctx context.Context, userID int, event models.CompletionEvent) (*models.CompletionOutcome, error)
	// Method AwardBadges stores earned badges and returns the ones the user did not hold yet.
	//
	// If some error occurs during data insert, the error will be returned together with "nil" value.
	AwardBadges(ctx context.Context, userID int, badges []models.EarnedBadge) ([]models.EarnedBadge, error)
	// Method ListActivityDays retrieve the UTC days with learning activity on or after "since".
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	ListActivityDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error)
}

// AccountRepository is the interface that wraps methods for users table reads
type AccountRepository interface {
	// Method GetByID retrieve an account by its ID.
	//
	// If the account does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Account, error)
}

// EnrollmentEnsurer is the interface that wraps the Ensure method of the enrollment repository
type EnrollmentEnsurer interface {
	// Method Ensure creates an active enrollment unless one exists and reports whether it was created.
	Ensure(ctx context.Context, userID int, courseID string) (bool, error)
}

// Notifier is the interface that wraps the Notify method of the notification service
type Notifier interface {
	// Method Notify stores a notification and schedules its delivery.
	Notify(ctx context.Context, n *models.Notification) error
}

type progressService struct {
	accounts    AccountRepository
	courses     CourseSource
	store       ProgressStore
	enrollments EnrollmentEnsurer
	notifier    Notifier
	evaluator   *badges.Evaluator
	logger      *zap.Logger
	now         func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(
	accounts AccountRepository,
	courses CourseSource,
	store ProgressStore,
	enrollments EnrollmentEnsurer,
	notifier Notifier,
	evaluator *badges.Evaluator,
	logger *zap.Logger,
) *progressService {
	return &progressService{
		accounts:    accounts,
		courses:     courses,
		store:       store,
		enrollments: enrollments,
		notifier:    notifier,
		evaluator:   evaluator,
		logger:      logger,
		now:         time.Now,
	}
}

// GetCourseProgress returns a course with the user's per-chapter state
func (s *progressService) GetCourseProgress(ctx context.Context, userID int, courseID string) (*models.CourseProgressResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return progress.Describe(user, course), nil
}

// CompleteChapter marks a chapter as completed for the user.
//
// The chapter must belong to the course and be unlocked. The change is persisted before anything
// else happens; afterwards the state is read back from the store, badge rules are evaluated and
// notifications are sent. Completing a chapter twice is a no-op.
func (s *progressService) CompleteChapter(ctx context.Context, userID int, courseID, chapterID string) (*models.CompleteChapterResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	idx := progress.ChapterIndex(course, chapterID)
	if idx < 0 {
		return nil, fmt.Errorf("chapter %q in course %q: %w", chapterID, courseID, models.ErrInvalidChapter)
	}
	completed := user.CompletedChapters(courseID)
	if !slices.Contains(completed, chapterID) && !progress.IsChapterAccessible(course, idx, completed) {
		return nil, fmt.Errorf("chapter %q in course %q is locked: %w", chapterID, courseID, models.ErrPrecondition)
	}

	now := s.now().UTC()

	// Work on a copy; the stored state is only replaced by what the store returns
	working := user.Clone()
	upd, err := progress.MarkChapterComplete(working, course, chapterID, now)
	if err != nil {
		return nil, err
	}
	if !upd.ChapterAdded {
		upd = pendingCompletion(working, course, now)
	}

	outcome := &models.CompletionOutcome{}
	if upd.ChapterAdded || upd.CourseCompleted || upd.BadgeGranted != nil {
		outcome, err = s.store.RecordCompletion(ctx, userID, models.CompletionEvent{
			CourseID:        courseID,
			ChapterID:       chapterID,
			CourseCompleted: upd.CourseCompleted,
			Badge:           upd.BadgeGranted,
			CompletedAt:     now,
		})
		if err != nil {
			s.logger.Error("failed to record chapter completion",
				zap.Int("user_id", userID),
				zap.String("course_id", courseID),
				zap.String("chapter_id", chapterID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to record chapter completion: %w", err)
		}
	}

	refreshed, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned := make([]models.EarnedBadge, 0)
	if outcome.BadgeEarned != nil {
		earned = append(earned, *outcome.BadgeEarned)
	}

	if outcome.ChapterRecorded || outcome.CourseCompleted {
		awarded, err := s.evaluate(ctx, refreshed, now)
		if err != nil {
			// The completion is stored; the nightly sweep picks up missed rule badges
			s.logger.Warn("failed to evaluate badges after completion", zap.Int("user_id", userID), zap.Error(err))
		} else if len(awarded) > 0 {
			earned = append(earned, awarded...)
			if refreshed, err = s.loadUser(ctx, userID); err != nil {
				return nil, err
			}
		}

		if _, err := s.enrollments.Ensure(ctx, userID, courseID); err != nil {
			s.logger.Warn("failed to ensure enrollment", zap.Int("user_id", userID), zap.String("course_id", courseID), zap.Error(err))
		}
	}

	s.notifyCompletion(ctx, userID, course, chapterID, outcome, earned)

	return &models.CompleteChapterResponse{
		CourseCompleted: outcome.CourseCompleted,
		BadgesEarned:    earned,
		Progress:        progress.Describe(refreshed, course),
	}, nil
}

// CheckAchievements evaluates badge rules and records the newly earned badges
func (s *progressService) CheckAchievements(ctx context.Context, userID int) ([]models.EarnedBadge, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	awarded, err := s.evaluate(ctx, user, s.now().UTC())
	if err != nil {
		return nil, err
	}

	for _, b := range awarded {
		s.notify(ctx, badgeNotification(userID, b))
	}

	return awarded, nil
}

// GetUserBadges returns the earned badges and the progress toward every badge
func (s *progressService) GetUserBadges(ctx context.Context, userID int) (*models.UserBadgesResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	days, err := s.store.ListActivityDays(ctx, userID, now.Add(-activityWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list learning activity: %w", err)
	}

	stats := badges.Stats{CurrentStreak: badges.CurrentStreak(days, now)}
	return &models.UserBadgesResponse{
		EarnedBadges:    user.Badges,
		AvailableBadges: s.evaluator.With(badges.CourseBadgeDefinitions(catalog)).Progress(user, catalog, stats, now),
	}, nil
}

// GetUserStats returns the learning totals and streaks of the user
func (s *progressService) GetUserStats(ctx context.Context, userID int) (*models.UserStats, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	days, err := s.store.ListActivityDays(ctx, userID, now.Add(-activityWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list learning activity: %w", err)
	}

	stats := &models.UserStats{
		CompletedCourses: len(user.CompletedCourses),
		TotalBadges:      len(user.Badges),
		CurrentStreak:    badges.CurrentStreak(days, now),
		LongestStreak:    badges.LongestStreak(days),
	}
	for courseID, p := range user.CurrentProgress {
		if p == nil {
			continue
		}
		stats.CompletedChapters += len(p.CompletedChapters)
		if len(p.CompletedChapters) > 0 && !user.HasCompletedCourse(courseID) {
			stats.InProgressCourses++
		}
	}

	return stats, nil
}

// loadUser resolves the account and reads its progress from the store
func (s *progressService) loadUser(ctx context.Context, userID int) (*models.User, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user, err := s.store.GetUserState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}

	user.ID = account.ID
	user.Name = account.Name
	user.Email = account.Email
	user.Role = account.Role

	return user, nil
}

func (s *progressService) catalog(ctx context.Context) (badges.Catalog, error) {
	courses, err := s.courses.ListCourses(ctx, models.CourseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return badges.NewCatalog(courses), nil
}

// evaluatorFor adds the catalog's course badges to the configured rules.
// Course badges of courses the user already holds a badge for are left out.
func (s *progressService) evaluatorFor(user *models.User, catalog badges.Catalog) *badges.Evaluator {
	courseDefs := badges.CourseBadgeDefinitions(catalog)
	extra := make([]models.BadgeDefinition, 0, len(courseDefs))
	for _, d := range courseDefs {
		if user.HasCourseBadge(d.CourseID) {
			continue
		}
		extra = append(extra, d)
	}
	return s.evaluator.With(extra)
}

// evaluate runs the badge rules and stores what was earned
func (s *progressService) evaluate(ctx context.Context, user *models.User, now time.Time) ([]models.EarnedBadge, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	days, err := s.store.ListActivityDays(ctx, user.ID, now.Add(-activityWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list learning activity: %w", err)
	}

	stats := badges.Stats{CurrentStreak: badges.CurrentStreak(days, now)}
	candidates := s.evaluatorFor(user, catalog).Evaluate(user, catalog, stats, now)
	if len(candidates) == 0 {
		return candidates, nil
	}

	awarded, err := s.store.AwardBadges(ctx, user.ID, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to award badges: %w", err)
	}

	return awarded, nil
}

func (s *progressService) notifyCompletion(ctx context.Context, userID int, course *models.Course, chapterID string, outcome *models.CompletionOutcome, earned []models.EarnedBadge) {
	if outcome.ChapterRecorded {
		title := chapterID
		if idx := progress.ChapterIndex(course, chapterID); idx >= 0 && course.Chapters[idx].Title != "" {
			title = course.Chapters[idx].Title
		}
		s.notify(ctx, &models.Notification{
			UserID:   userID,
			Type:     models.NotificationChapterCompleted,
			Priority: models.PriorityLow,
			Title:    fmt.Sprintf("Chapter completed: %s", title),
			Message:  fmt.Sprintf("You completed a chapter of %q.", course.Title),
			CourseID: course.ID,
		})
	}

	if outcome.CourseCompleted {
		s.notify(ctx, &models.Notification{
			UserID:   userID,
			Type:     models.NotificationCourseCompleted,
			Priority: models.PriorityHigh,
			Title:    fmt.Sprintf("Course completed: %s", course.Title),
			Message:  fmt.Sprintf("Congratulations, you completed %q.", course.Title),
			CourseID: course.ID,
		})
	}

	for _, b := range earned {
		s.notify(ctx, badgeNotification(userID, b))
	}
}

// notify sends a notification; failures are logged only
func (s *progressService) notify(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("failed to send notification",
			zap.Int("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}

func badgeNotification(userID int, b models.EarnedBadge) *models.Notification {
	return &models.Notification{
		UserID:   userID,
		Type:     models.NotificationBadgeEarned,
		Priority: models.PriorityHigh,
		Title:    fmt.Sprintf("Badge earned: %s", b.Name),
		Message:  b.Description,
		CourseID: b.CourseID,
		BadgeID:  b.ID,
	}
}

// pendingCompletion reports a course completion or course badge that the store is missing
// although every chapter is already completed
func pendingCompletion(user *models.User, course *models.Course, now time.Time) progress.Update {
	var upd progress.Update
	if len(course.Chapters) == 0 {
		return upd
	}
	completed := user.CompletedChapters(course.ID)
	for _, ch := range course.Chapters {
		if !slices.Contains(completed, ch.ID) {
			return upd
		}
	}

	if !user.HasCompletedCourse(course.ID) {
		upd.CourseCompleted = true
	}
	if course.Badge != nil && !user.HasCourseBadge(course.ID) && !user.HasBadge(course.Badge.ID) {
		earned := course.Badge.Earn(course.ID, now)
		upd.BadgeGranted = &earned
	}
	return upd
}
