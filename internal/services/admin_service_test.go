package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/sources/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAdminRepository is a mock implementation of AdminRepository
type mockAdminRepository struct {
	stats     *models.DashboardStats
	activity  map[string]models.CourseActivity
	days      []models.ActivityDay
	err       error
	lastSince time.Time
}

func (m *mockAdminRepository) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	cp := *m.stats
	return &cp, nil
}

func (m *mockAdminRepository) GetCourseActivity(ctx context.Context) (map[string]models.CourseActivity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.activity, nil
}

func (m *mockAdminRepository) GetActivityDays(ctx context.Context, since time.Time) ([]models.ActivityDay, error) {
	m.lastSince = since
	if m.err != nil {
		return nil, m.err
	}
	return m.days, nil
}

func TestAdminService_GetDashboard(t *testing.T) {
	tests := []struct {
		name          string
		repo          *mockAdminRepository
		expectedStats *models.DashboardStats
		expectedError bool
	}{
		{
			name: "success",
			repo: &mockAdminRepository{stats: &models.DashboardStats{TotalUsers: 10, ActiveUsers: 8, TotalEnrollments: 14, CompletedCourses: 5, BadgesAwarded: 7}},
			expectedStats: &models.DashboardStats{
				TotalUsers: 10, ActiveUsers: 8, TotalEnrollments: 14, CompletedCourses: 5, BadgesAwarded: 7, TotalCourses: 2,
			},
		},
		{
			name:          "repository error",
			repo:          &mockAdminRepository{err: errors.New("database error")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAdminService(tt.repo, &mockAccountRepository{}, memory.NewStore(testCatalogCourses()), zap.NewNop())

			stats, err := svc.GetDashboard(context.Background())

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, stats)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStats, stats)
		})
	}
}

func TestAdminService_UpdateUserRole(t *testing.T) {
	tests := []struct {
		name          string
		actorID       int
		userID        int
		role          models.Role
		updateErr     error
		expectedRole  models.Role
		expectedError error
	}{
		{name: "promote", actorID: 1, userID: 2, role: models.RoleInstructor, expectedRole: models.RoleInstructor},
		{name: "same role is a no-op", actorID: 1, userID: 2, role: models.RoleStudent, expectedRole: models.RoleStudent},
		{name: "own role", actorID: 1, userID: 1, role: models.RoleStudent, expectedError: models.ErrPrecondition},
		{name: "unknown role", actorID: 1, userID: 2, role: "owner", expectedError: models.ErrValidation},
		{name: "unknown user", actorID: 1, userID: 9, role: models.RoleAdmin, expectedError: models.ErrNotFound},
		{name: "update failure", actorID: 1, userID: 2, role: models.RoleAdmin, updateErr: errors.New("database error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockAccountRepository{
				accounts: map[int]*models.Account{
					1: {ID: 1, Role: models.RoleAdmin, IsActive: true},
					2: {ID: 2, Role: models.RoleStudent, IsActive: true},
				},
				updateErr: tt.updateErr,
			}
			svc := NewAdminService(&mockAdminRepository{}, users, memory.NewStore(nil), zap.NewNop())

			account, err := svc.UpdateUserRole(context.Background(), tt.actorID, tt.userID, tt.role)

			switch {
			case tt.updateErr != nil:
				assert.Error(t, err)
				assert.Equal(t, models.RoleStudent, users.accounts[2].Role)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, account)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedRole, account.Role)
				assert.Equal(t, tt.expectedRole, users.accounts[tt.userID].Role)
			}
		})
	}
}

func TestAdminService_ListUsers(t *testing.T) {
	inactive := false

	tests := []struct {
		name           string
		filter         models.UserListFilter
		expectedFilter models.UserListFilter
		expectedIDs    []int
		expectedError  error
	}{
		{
			name:           "defaults",
			filter:         models.UserListFilter{},
			expectedFilter: models.UserListFilter{Page: 1, Count: 20},
			expectedIDs:    []int{1, 2, 3},
		},
		{
			name:           "page size is capped",
			filter:         models.UserListFilter{Page: 2, Count: 500, Search: "  ana  "},
			expectedFilter: models.UserListFilter{Page: 2, Count: 100, Search: "ana"},
			expectedIDs:    []int{1, 2, 3},
		},
		{
			name:           "role filter",
			filter:         models.UserListFilter{Role: models.RoleStudent},
			expectedFilter: models.UserListFilter{Role: models.RoleStudent, Page: 1, Count: 20},
			expectedIDs:    []int{2, 3},
		},
		{
			name:           "status filter",
			filter:         models.UserListFilter{Active: &inactive},
			expectedFilter: models.UserListFilter{Active: &inactive, Page: 1, Count: 20},
			expectedIDs:    []int{3},
		},
		{
			name:          "unknown role",
			filter:        models.UserListFilter{Role: "owner"},
			expectedError: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockAccountRepository{accounts: map[int]*models.Account{
				1: {ID: 1, Role: models.RoleAdmin, IsActive: true},
				2: {ID: 2, Role: models.RoleStudent, IsActive: true},
				3: {ID: 3, Role: models.RoleStudent, IsActive: false},
			}}
			svc := NewAdminService(&mockAdminRepository{}, users, memory.NewStore(nil), zap.NewNop())

			list, err := svc.ListUsers(context.Background(), tt.filter)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, list)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedFilter, users.lastFilter)
			assert.Equal(t, tt.expectedFilter.Page, list.Page)
			assert.Equal(t, tt.expectedFilter.Count, list.Count)
			ids := make([]int, 0, len(list.Users))
			for _, u := range list.Users {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestAdminService_ListUsers_RepositoryError(t *testing.T) {
	users := &mockAccountRepository{err: errors.New("database error")}
	svc := NewAdminService(&mockAdminRepository{}, users, memory.NewStore(nil), zap.NewNop())

	list, err := svc.ListUsers(context.Background(), models.UserListFilter{})

	assert.Error(t, err)
	assert.Nil(t, list)
}

func TestAdminService_ToggleUserStatus(t *testing.T) {
	tests := []struct {
		name           string
		actorID        int
		userID         int
		updateErr      error
		expectedActive bool
		expectedError  error
	}{
		{name: "deactivate", actorID: 1, userID: 2, expectedActive: false},
		{name: "reactivate", actorID: 1, userID: 3, expectedActive: true},
		{name: "own account", actorID: 1, userID: 1, expectedError: models.ErrPrecondition},
		{name: "unknown user", actorID: 1, userID: 9, expectedError: models.ErrNotFound},
		{name: "update failure", actorID: 1, userID: 2, updateErr: errors.New("database error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockAccountRepository{
				accounts: map[int]*models.Account{
					1: {ID: 1, Role: models.RoleAdmin, IsActive: true},
					2: {ID: 2, Role: models.RoleStudent, IsActive: true},
					3: {ID: 3, Role: models.RoleStudent, IsActive: false},
				},
				updateErr: tt.updateErr,
			}
			svc := NewAdminService(&mockAdminRepository{}, users, memory.NewStore(nil), zap.NewNop())

			account, err := svc.ToggleUserStatus(context.Background(), tt.actorID, tt.userID)

			switch {
			case tt.updateErr != nil:
				assert.Error(t, err)
				assert.True(t, users.accounts[2].IsActive)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, account)
				assert.True(t, users.accounts[1].IsActive)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedActive, account.IsActive)
				assert.Equal(t, tt.expectedActive, users.accounts[tt.userID].IsActive)
			}
		})
	}
}

func TestAdminService_GetCourseStats(t *testing.T) {
	t.Run("joins catalog with stored counters", func(t *testing.T) {
		repo := &mockAdminRepository{activity: map[string]models.CourseActivity{
			// sec has 3 chapters: 4 learners with 7 completed chapters out of 12
			"sec": {CourseID: "sec", Enrollments: 4, Completions: 1, ChapterCompletions: 7, Ratings: 3, RatingSum: 13},
			// a rated course that left the catalog is ignored
			"gone": {CourseID: "gone", Ratings: 1, RatingSum: 5},
		}}
		svc := NewAdminService(repo, &mockAccountRepository{}, memory.NewStore(testCatalogCourses()), zap.NewNop())

		stats, err := svc.GetCourseStats(context.Background())

		require.NoError(t, err)
		require.Len(t, stats, 2)
		byID := map[string]models.CourseStats{}
		for _, s := range stats {
			byID[s.CourseID] = s
		}
		assert.Equal(t, models.CourseStats{
			CourseID: "sec", Title: "Security", Category: "Security", TotalChapters: 3,
			Enrollments: 4, Completions: 1, CompletionRate: 25, AverageProgress: 58,
			Ratings: 3, AverageRating: 4.3,
		}, byID["sec"])
		assert.Equal(t, models.CourseStats{
			CourseID: "com", Title: "Communication", Category: "Communication", TotalChapters: 1,
		}, byID["com"])
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &mockAdminRepository{err: errors.New("database error")}
		svc := NewAdminService(repo, &mockAccountRepository{}, memory.NewStore(testCatalogCourses()), zap.NewNop())

		stats, err := svc.GetCourseStats(context.Background())

		assert.Error(t, err)
		assert.Nil(t, stats)
	})
}

func TestAdminService_GetActivityReport(t *testing.T) {
	tests := []struct {
		name          string
		period        int
		days          []models.ActivityDay
		expectedFrom  string
		expectedDays  int
		expectedError error
	}{
		{name: "default period", period: 0, expectedFrom: "2026-04-21", expectedDays: 30},
		{name: "one day", period: 1, expectedFrom: "2026-05-20", expectedDays: 1},
		{
			name:   "fills gaps between active days",
			period: 3,
			days: []models.ActivityDay{
				{Date: "2026-05-18", ActiveLearners: 2, Enrollments: 1, ChaptersCompleted: 4},
				{Date: "2026-05-20", ActiveLearners: 1, ChaptersCompleted: 1, CoursesCompleted: 1},
			},
			expectedFrom: "2026-05-18",
			expectedDays: 3,
		},
		{name: "negative period", period: -1, expectedError: models.ErrValidation},
		{name: "period too long", period: 366, expectedError: models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockAdminRepository{days: tt.days}
			svc := NewAdminService(repo, &mockAccountRepository{}, memory.NewStore(nil), zap.NewNop())
			svc.now = func() time.Time { return fixedNow }

			report, err := svc.GetActivityReport(context.Background(), tt.period)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, report)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedFrom, report.From)
			assert.Equal(t, "2026-05-20", report.To)
			assert.Equal(t, tt.expectedFrom, repo.lastSince.Format(time.DateOnly))
			require.Len(t, report.Days, tt.expectedDays)
			assert.Equal(t, tt.expectedFrom, report.Days[0].Date)
			assert.Equal(t, "2026-05-20", report.Days[len(report.Days)-1].Date)
		})
	}
}

func TestAdminService_GetActivityReport_Totals(t *testing.T) {
	repo := &mockAdminRepository{days: []models.ActivityDay{
		{Date: "2026-05-18", ActiveLearners: 2, Enrollments: 1, ChaptersCompleted: 4},
		{Date: "2026-05-20", ActiveLearners: 1, ChaptersCompleted: 1, CoursesCompleted: 1},
	}}
	svc := NewAdminService(repo, &mockAccountRepository{}, memory.NewStore(nil), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }

	report, err := svc.GetActivityReport(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, []models.ActivityDay{
		{Date: "2026-05-18", ActiveLearners: 2, Enrollments: 1, ChaptersCompleted: 4},
		{Date: "2026-05-19"},
		{Date: "2026-05-20", ActiveLearners: 1, ChaptersCompleted: 1, CoursesCompleted: 1},
	}, report.Days)
	assert.Equal(t, 1, report.Enrollments)
	assert.Equal(t, 5, report.ChaptersCompleted)
	assert.Equal(t, 1, report.CoursesCompleted)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(0, 0))
	assert.Equal(t, 0, percent(3, 0))
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 67, percent(2, 3))
	assert.Equal(t, 50, percent(1, 2))
	assert.Equal(t, 100, percent(5, 4))
}

func TestAdminService_ToggleUserStatus_BlocksLogin(t *testing.T) {
	users := newMockUserRepository()
	admin := users.add(t, "admin@example.com", "secret123", true)
	ana := users.add(t, "ana@example.com", "secret123", true)
	adminSvc := NewAdminService(&mockAdminRepository{}, users, memory.NewStore(nil), zap.NewNop())
	authSvc, _ := newTestAuthService(users)
	login := &models.LoginRequest{Email: "ana@example.com", Password: "secret123"}

	account, err := adminSvc.ToggleUserStatus(context.Background(), admin.ID, ana.ID)
	require.NoError(t, err)
	assert.False(t, account.IsActive)

	_, err = authSvc.Login(context.Background(), login)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	account, err = adminSvc.ToggleUserStatus(context.Background(), admin.ID, ana.ID)
	require.NoError(t, err)
	assert.True(t, account.IsActive)

	_, err = authSvc.Login(context.Background(), login)
	assert.NoError(t, err)
}
