package services

import (
	"context"
	"fmt"

	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/progress"
	"go.uber.org/zap"
)

// EnrollmentRepository is the interface that wraps methods for enrollments table data access
type EnrollmentRepository interface {
	// Method Ensure creates an active enrollment unless one exists and reports whether it was created.
	//
	// If some error occurs during data insert, the error will be returned together with "false".
	Ensure(ctx context.Context, userID int, courseID string) (bool, error)
	// Method Get retrieve the enrollment of a user in a course.
	//
	// If the user is not enrolled, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	Get(ctx context.Context, userID int, courseID string) (*models.Enrollment, error)
	// Method ListByUser retrieve all enrollments of a user, newest first.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	ListByUser(ctx context.Context, userID int) ([]models.Enrollment, error)
	// Method UpdateStatus sets the stored status of an enrollment.
	//
	// If some error occurs during data update, the error will be returned.
	UpdateStatus(ctx context.Context, userID int, courseID string, status models.EnrollmentStatus) error
}

type enrollmentService struct {
	repo     EnrollmentRepository
	courses  CourseSource
	store    ProgressStore
	notifier Notifier
	logger   *zap.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(repo EnrollmentRepository, courses CourseSource, store ProgressStore, notifier Notifier, logger *zap.Logger) *enrollmentService {
	return &enrollmentService{
		repo:     repo,
		courses:  courses,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Enroll enrolls the user in a course. Enrolling twice keeps the first enrollment.
func (s *enrollmentService) Enroll(ctx context.Context, userID int, courseID string) (*models.EnrollmentView, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	created, err := s.repo.Ensure(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	if created && s.notifier != nil {
		n := &models.Notification{
			UserID:   userID,
			Type:     models.NotificationEnrollment,
			Priority: models.PriorityMedium,
			Title:    fmt.Sprintf("Enrolled in %s", course.Title),
			Message:  "The first chapter is unlocked. Good luck!",
			CourseID: course.ID,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Warn("failed to send enrollment notification", zap.Int("user_id", userID), zap.Error(err))
		}
	}

	return s.view(ctx, userID, course)
}

// ListUserCourses returns the user's enrollments with progress.
// "status" is one of all, active, completed or paused; empty means all.
func (s *enrollmentService) ListUserCourses(ctx context.Context, userID int, status string) ([]models.EnrollmentView, error) {
	switch status {
	case "", "all":
		status = ""
	case string(models.EnrollmentStatusActive), string(models.EnrollmentStatusCompleted), string(models.EnrollmentStatusPaused):
	default:
		return nil, fmt.Errorf("unknown status %q: %w", status, models.ErrValidation)
	}

	enrollments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	views := make([]models.EnrollmentView, 0, len(enrollments))
	if len(enrollments) == 0 {
		return views, nil
	}

	courses, err := s.courses.ListCourses(ctx, models.CourseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	byID := make(map[string]*models.Course, len(courses))
	for i := range courses {
		byID[courses[i].ID] = &courses[i]
	}

	user, err := s.store.GetUserState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}

	for _, e := range enrollments {
		course, ok := byID[e.CourseID]
		if !ok {
			s.logger.Warn("enrollment references unknown course", zap.Int("user_id", userID), zap.String("course_id", e.CourseID))
			continue
		}
		v := buildEnrollmentView(e, course, user)
		if status != "" && string(v.Status) != status {
			continue
		}
		views = append(views, v)
	}

	return views, nil
}

// SetPaused pauses or resumes an enrollment. Completed courses cannot be paused.
func (s *enrollmentService) SetPaused(ctx context.Context, userID int, courseID string, paused bool) (*models.EnrollmentView, error) {
	if _, err := s.repo.Get(ctx, userID, courseID); err != nil {
		return nil, err
	}

	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	user, err := s.store.GetUserState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	if user.HasCompletedCourse(courseID) {
		return nil, fmt.Errorf("course %q is completed: %w", courseID, models.ErrPrecondition)
	}

	status := models.EnrollmentStatusActive
	if paused {
		status = models.EnrollmentStatusPaused
	}
	if err := s.repo.UpdateStatus(ctx, userID, courseID, status); err != nil {
		return nil, err
	}

	return s.view(ctx, userID, course)
}

func (s *enrollmentService) view(ctx context.Context, userID int, course *models.Course) (*models.EnrollmentView, error) {
	e, err := s.repo.Get(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}

	v := buildEnrollmentView(*e, course, user)
	return &v, nil
}

// buildEnrollmentView derives the completed status and progress from the learner state
func buildEnrollmentView(e models.Enrollment, course *models.Course, user *models.User) models.EnrollmentView {
	resp := progress.Describe(user, course)

	status := e.Status
	if user.HasCompletedCourse(course.ID) {
		status = models.EnrollmentStatusCompleted
	}

	return models.EnrollmentView{
		CourseID:           course.ID,
		Title:              course.Title,
		Category:           course.Category,
		Status:             status,
		ProgressPercentage: resp.ProgressPercentage,
		CompletedChapters:  resp.CompletedChapters,
		TotalChapters:      len(course.Chapters),
		EnrolledAt:         e.EnrolledAt,
	}
}
