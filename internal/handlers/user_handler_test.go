package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockEnrollmentService is a mock implementation of EnrollmentService
type mockEnrollmentService struct {
	views      []models.EnrollmentView
	view       *models.EnrollmentView
	err        error
	lastStatus string
	lastPaused *bool
}

func (m *mockEnrollmentService) ListUserCourses(ctx context.Context, userID int, status string) ([]models.EnrollmentView, error) {
	m.lastStatus = status
	return m.views, m.err
}

func (m *mockEnrollmentService) SetPaused(ctx context.Context, userID int, courseID string, paused bool) (*models.EnrollmentView, error) {
	m.lastPaused = &paused
	return m.view, m.err
}

// mockStatsService is a mock implementation of StatsService
type mockStatsService struct {
	stats *models.UserStats
	err   error
}

func (m *mockStatsService) GetUserStats(ctx context.Context, userID int) (*models.UserStats, error) {
	return m.stats, m.err
}

// mockProfileService is a mock implementation of ProfileService
type mockProfileService struct {
	account      *models.Account
	err          error
	lastUserID   int
	lastProfile  *models.UpdateProfileRequest
	lastPassword *models.ChangePasswordRequest
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.Account, error) {
	m.lastUserID, m.lastProfile = userID, req
	return m.account, m.err
}

func (m *mockProfileService) ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error {
	m.lastUserID, m.lastPassword = userID, req
	return m.err
}

func newUserRouter(enrollments *mockEnrollmentService, stats *mockStatsService) chi.Router {
	return newProfileRouter(enrollments, stats, &mockProfileService{})
}

func newProfileRouter(enrollments *mockEnrollmentService, stats *mockStatsService, profile *mockProfileService) chi.Router {
	h := NewUserHandler(enrollments, stats, profile, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r, asUser(7, models.RoleStudent))
	return r
}

func TestUserHandler_ListCourses(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		svc            *mockEnrollmentService
		expectedStatus int
		expectedFilter string
	}{
		{
			name:           "all",
			path:           "/users/me/courses",
			svc:            &mockEnrollmentService{views: []models.EnrollmentView{{CourseID: "sec"}}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "completed",
			path:           "/users/me/courses?status=completed",
			svc:            &mockEnrollmentService{views: []models.EnrollmentView{}},
			expectedStatus: http.StatusOK,
			expectedFilter: "completed",
		},
		{
			name:           "unknown status",
			path:           "/users/me/courses?status=archived",
			svc:            &mockEnrollmentService{err: models.ErrValidation},
			expectedStatus: http.StatusBadRequest,
			expectedFilter: "archived",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, newUserRouter(tt.svc, &mockStatsService{}), http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedFilter, tt.svc.lastStatus)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, resp.Success)
		})
	}
}

func TestUserHandler_PauseResume(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		err            error
		expectedPaused bool
		expectedStatus int
	}{
		{name: "pause", path: "/users/me/courses/sec/pause", expectedPaused: true, expectedStatus: http.StatusOK},
		{name: "resume", path: "/users/me/courses/sec/resume", expectedPaused: false, expectedStatus: http.StatusOK},
		{name: "not enrolled", path: "/users/me/courses/sec/pause", err: models.ErrNotFound, expectedPaused: true, expectedStatus: http.StatusNotFound},
		{name: "completed course", path: "/users/me/courses/sec/pause", err: models.ErrPrecondition, expectedPaused: true, expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEnrollmentService{view: &models.EnrollmentView{CourseID: "sec"}, err: tt.err}

			w, _ := doRequest(t, newUserRouter(svc, &mockStatsService{}), http.MethodPut, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			require.NotNil(t, svc.lastPaused)
			assert.Equal(t, tt.expectedPaused, *svc.lastPaused)
		})
	}
}

func TestUserHandler_Stats(t *testing.T) {
	stats := &mockStatsService{stats: &models.UserStats{CompletedCourses: 2, CurrentStreak: 3}}

	w, resp := doRequest(t, newUserRouter(&mockEnrollmentService{}, stats), http.MethodGet, "/users/me/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var got models.UserStats
	decodeData(t, resp, &got)
	assert.Equal(t, 2, got.CompletedCourses)
	assert.Equal(t, 3, got.CurrentStreak)
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		err            error
		expectedStatus int
	}{
		{name: "success", body: map[string]string{"name": "Ana Maria"}, expectedStatus: http.StatusOK},
		{name: "malformed body", body: "{name", expectedStatus: http.StatusBadRequest},
		{name: "no fields", body: map[string]string{}, err: fmt.Errorf("at least one field: %w", models.ErrValidation), expectedStatus: http.StatusBadRequest},
		{name: "email taken", body: map[string]string{"email": "bo@example.com"}, err: fmt.Errorf("email: %w", models.ErrConflict), expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &mockProfileService{
				account: &models.Account{ID: 7, Name: "Ana Maria", Email: "ana@example.com", PasswordHash: "secret-hash"},
				err:     tt.err,
			}

			w, resp := doRequest(t, newProfileRouter(&mockEnrollmentService{}, &mockStatsService{}, profile), http.MethodPut, "/users/me", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, resp.Success)
				return
			}
			assert.Equal(t, 7, profile.lastUserID)
			require.NotNil(t, profile.lastProfile.Name)
			assert.Equal(t, "Ana Maria", *profile.lastProfile.Name)
			assert.Nil(t, profile.lastProfile.Email)
			assert.NotContains(t, string(resp.Data), "secret-hash")
			var got models.Account
			decodeData(t, resp, &got)
			assert.Equal(t, "Ana Maria", got.Name)
		})
	}
}

func TestUserHandler_ChangePassword(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		err            error
		expectedStatus int
	}{
		{name: "success", body: models.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "better456"}, expectedStatus: http.StatusOK},
		{name: "malformed body", body: "[", expectedStatus: http.StatusBadRequest},
		{name: "wrong current password", body: models.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "better456"}, err: fmt.Errorf("current password is incorrect: %w", models.ErrValidation), expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &mockProfileService{err: tt.err}

			w, resp := doRequest(t, newProfileRouter(&mockEnrollmentService{}, &mockStatsService{}, profile), http.MethodPut, "/users/me/password", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, resp.Success)
				return
			}
			assert.Equal(t, 7, profile.lastUserID)
			assert.Equal(t, "better456", profile.lastPassword.NewPassword)
			assert.Equal(t, "password changed", resp.Message)
		})
	}
}
