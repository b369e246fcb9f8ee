package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// AdminRepository is the interface that wraps methods for admin statistics
type AdminRepository interface {
	// Method GetDashboardStats counts users, enrollments, completions and awarded badges.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	// Method GetCourseActivity retrieve enrollment, completion and rating counters keyed by course id.
	//
	// Courses without enrollments or ratings are absent from the map.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetCourseActivity(ctx context.Context) (map[string]models.CourseActivity, error)
	// Method GetActivityDays retrieve per-day counters for the days on or after "since" that had any activity.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetActivityDays(ctx context.Context, since time.Time) ([]models.ActivityDay, error)
}

// ManagedUserRepository is the interface that wraps methods for account administration
type ManagedUserRepository interface {
	// Method GetByID retrieve an account by its ID.
	//
	// If the account does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Account, error)
	// Method UpdateRole sets the role of an account.
	//
	// If some error occurs during data update, the error will be returned.
	UpdateRole(ctx context.Context, id int, role models.Role) error
	// Method SetActive enables or disables an account.
	//
	// If some error occurs during data update, the error will be returned.
	SetActive(ctx context.Context, id int, active bool) error
	// Method List retrieve a page of accounts ordered by id.
	//
	// "filter" must carry a positive page and count; empty filter fields are not applied.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	List(ctx context.Context, filter models.UserListFilter) ([]models.Account, error)
}

const (
	defaultUserPageSize = 20
	maxUserPageSize     = 100

	defaultReportPeriod = 30
	maxReportPeriod     = 365
)

type adminService struct {
	repo    AdminRepository
	users   ManagedUserRepository
	courses CourseSource
	logger  *zap.Logger
	now     func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(repo AdminRepository, users ManagedUserRepository, courses CourseSource, logger *zap.Logger) *adminService {
	return &adminService{
		repo:    repo,
		users:   users,
		courses: courses,
		logger:  logger,
		now:     time.Now,
	}
}

// GetDashboard returns platform totals
func (s *adminService) GetDashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.repo.GetDashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	courses, err := s.courses.ListCourses(ctx, models.CourseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	stats.TotalCourses = len(courses)

	return stats, nil
}

// UpdateUserRole changes the role of an account. Administrators cannot change their own role.
func (s *adminService) UpdateUserRole(ctx context.Context, actorID, userID int, role models.Role) (*models.Account, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, models.ErrValidation)
	}
	if actorID == userID {
		return nil, fmt.Errorf("cannot change own role: %w", models.ErrPrecondition)
	}

	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account.Role == role {
		return account, nil
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	s.logger.Info("user role changed",
		zap.Int("actor_id", actorID),
		zap.Int("user_id", userID),
		zap.String("from", string(account.Role)),
		zap.String("to", string(role)),
	)
	account.Role = role

	return account, nil
}

// ListUsers retrieves a page of accounts with optional role, status and search filters
func (s *adminService) ListUsers(ctx context.Context, filter models.UserListFilter) (*models.UserList, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Count < 1 {
		filter.Count = defaultUserPageSize
	}
	if filter.Count > maxUserPageSize {
		filter.Count = maxUserPageSize
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, fmt.Errorf("unknown role %q: %w", filter.Role, models.ErrValidation)
	}
	filter.Search = strings.TrimSpace(filter.Search)

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.UserList{
		Users: users,
		Page:  filter.Page,
		Count: filter.Count,
	}, nil
}

// ToggleUserStatus activates a disabled account or disables an active one.
// Administrators cannot disable themselves.
func (s *adminService) ToggleUserStatus(ctx context.Context, actorID, userID int) (*models.Account, error) {
	if actorID == userID {
		return nil, fmt.Errorf("cannot change own status: %w", models.ErrPrecondition)
	}

	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := !account.IsActive
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}
	s.logger.Info("user status changed",
		zap.Int("actor_id", actorID),
		zap.Int("user_id", userID),
		zap.Bool("active", active),
	)
	account.IsActive = active

	return account, nil
}

// GetCourseStats returns enrollment, completion, progress and rating figures for every catalog course
func (s *adminService) GetCourseStats(ctx context.Context) ([]models.CourseStats, error) {
	courses, err := s.courses.ListCourses(ctx, models.CourseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	activity, err := s.repo.GetCourseActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get course activity: %w", err)
	}

	stats := make([]models.CourseStats, 0, len(courses))
	for _, course := range courses {
		a := activity[course.ID]
		total := len(course.Chapters)
		stats = append(stats, models.CourseStats{
			CourseID:        course.ID,
			Title:           course.Title,
			Category:        course.Category,
			TotalChapters:   total,
			Enrollments:     a.Enrollments,
			Completions:     a.Completions,
			CompletionRate:  percent(a.Completions, a.Enrollments),
			AverageProgress: percent(a.ChapterCompletions, a.Enrollments*total),
			Ratings:         a.Ratings,
			AverageRating:   averageRating(a.RatingSum, a.Ratings),
		})
	}

	return stats, nil
}

// GetActivityReport returns daily activity for the last "period" days including today (UTC).
// A zero period selects 30 days.
func (s *adminService) GetActivityReport(ctx context.Context, period int) (*models.ActivityReport, error) {
	if period == 0 {
		period = defaultReportPeriod
	}
	if period < 1 || period > maxReportPeriod {
		return nil, fmt.Errorf("period must be between 1 and %d days: %w", maxReportPeriod, models.ErrValidation)
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(period - 1))

	stored, err := s.repo.GetActivityDays(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity days: %w", err)
	}
	byDate := make(map[string]models.ActivityDay, len(stored))
	for _, d := range stored {
		byDate[d.Date] = d
	}

	report := &models.ActivityReport{
		PeriodDays: period,
		From:       since.Format(time.DateOnly),
		To:         today.Format(time.DateOnly),
		Days:       make([]models.ActivityDay, 0, period),
	}
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		date := day.Format(time.DateOnly)
		d, ok := byDate[date]
		if !ok {
			d = models.ActivityDay{Date: date}
		}
		report.Days = append(report.Days, d)
		report.Enrollments += d.Enrollments
		report.ChaptersCompleted += d.ChaptersCompleted
		report.CoursesCompleted += d.CoursesCompleted
	}

	return report, nil
}

// percent rounds part/total half up and caps it at 100. An empty total yields 0.
func percent(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	if part >= total {
		return 100
	}
	return (200*part + total) / (2 * total)
}

// averageRating returns the mean rating rounded to one decimal
func averageRating(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)*10/float64(count)) / 10
}
