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

// mockCourseService is a mock implementation of CourseService
type mockCourseService struct {
	courses      []models.Course
	categories   []string
	err          error
	lastCategory string
	lastSearch   string
}

func (m *mockCourseService) ListCourses(ctx context.Context, category, search string) ([]models.Course, error) {
	m.lastCategory, m.lastSearch = category, search
	return m.courses, m.err
}

func (m *mockCourseService) ListCategories(ctx context.Context) ([]string, error) {
	return m.categories, m.err
}

// mockCourseProgressService is a mock implementation of CourseProgressService
type mockCourseProgressService struct {
	progress      *models.CourseProgressResponse
	complete      *models.CompleteChapterResponse
	err           error
	lastUserID    int
	lastCourseID  string
	lastChapterID string
}

func (m *mockCourseProgressService) GetCourseProgress(ctx context.Context, userID int, courseID string) (*models.CourseProgressResponse, error) {
	m.lastUserID, m.lastCourseID = userID, courseID
	return m.progress, m.err
}

func (m *mockCourseProgressService) CompleteChapter(ctx context.Context, userID int, courseID, chapterID string) (*models.CompleteChapterResponse, error) {
	m.lastUserID, m.lastCourseID, m.lastChapterID = userID, courseID, chapterID
	return m.complete, m.err
}

// mockEnroller is a mock implementation of Enroller
type mockEnroller struct {
	view *models.EnrollmentView
	err  error
}

func (m *mockEnroller) Enroll(ctx context.Context, userID int, courseID string) (*models.EnrollmentView, error) {
	return m.view, m.err
}

// mockCourseRater is a mock implementation of CourseRater
type mockCourseRater struct {
	resp         *models.RateCourseResponse
	err          error
	lastUserID   int
	lastCourseID string
	lastRequest  *models.RateCourseRequest
}

func (m *mockCourseRater) RateCourse(ctx context.Context, userID int, courseID string, req *models.RateCourseRequest) (*models.RateCourseResponse, error) {
	m.lastUserID, m.lastCourseID, m.lastRequest = userID, courseID, req
	return m.resp, m.err
}

func newCourseRouter(courses *mockCourseService, progress *mockCourseProgressService, enroller *mockEnroller) chi.Router {
	return newCourseRouterWithRater(courses, progress, enroller, &mockCourseRater{})
}

func newCourseRouterWithRater(courses *mockCourseService, progress *mockCourseProgressService, enroller *mockEnroller, rater *mockCourseRater) chi.Router {
	h := NewCourseHandler(courses, progress, enroller, rater, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r, asUser(7, models.RoleStudent))
	return r
}

func TestCourseHandler_ListCourses(t *testing.T) {
	courses := &mockCourseService{courses: []models.Course{{ID: "sec", Title: "Security"}}}
	r := newCourseRouter(courses, &mockCourseProgressService{}, &mockEnroller{})

	w, resp := doRequest(t, r, http.MethodGet, "/courses?category=Security&search=threat", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Security", courses.lastCategory)
	assert.Equal(t, "threat", courses.lastSearch)
	var got []models.Course
	decodeData(t, resp, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "sec", got[0].ID)
}

func TestCourseHandler_ListCourses_BackendDown(t *testing.T) {
	courses := &mockCourseService{err: fmt.Errorf("failed to list courses: %w", models.ErrTransientNetwork)}
	r := newCourseRouter(courses, &mockCourseProgressService{}, &mockEnroller{})

	w, resp := doRequest(t, r, http.MethodGet, "/courses", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, resp.Success)
}

func TestCourseHandler_ListCategories(t *testing.T) {
	courses := &mockCourseService{categories: []string{"Leadership", "Security"}}
	r := newCourseRouter(courses, &mockCourseProgressService{}, &mockEnroller{})

	w, resp := doRequest(t, r, http.MethodGet, "/courses/categories/list", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var got []string
	decodeData(t, resp, &got)
	assert.Equal(t, []string{"Leadership", "Security"}, got)
}

func TestCourseHandler_GetCourse(t *testing.T) {
	progress := &mockCourseProgressService{progress: &models.CourseProgressResponse{
		Course:             &models.Course{ID: "sec"},
		Status:             "in-progress",
		ProgressPercentage: 33,
	}}
	r := newCourseRouter(&mockCourseService{}, progress, &mockEnroller{})

	w, resp := doRequest(t, r, http.MethodGet, "/courses/sec", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, progress.lastUserID)
	assert.Equal(t, "sec", progress.lastCourseID)
	var got models.CourseProgressResponse
	decodeData(t, resp, &got)
	assert.Equal(t, 33, got.ProgressPercentage)
}

func TestCourseHandler_Enroll(t *testing.T) {
	enroller := &mockEnroller{view: &models.EnrollmentView{CourseID: "sec", Status: models.EnrollmentStatusActive}}
	r := newCourseRouter(&mockCourseService{}, &mockCourseProgressService{}, enroller)

	w, resp := doRequest(t, r, http.MethodPost, "/courses/sec/enroll", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "enrolled", resp.Message)
}

func TestCourseHandler_CompleteChapter(t *testing.T) {
	tests := []struct {
		name            string
		progress        *mockCourseProgressService
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "chapter completed",
			progress: &mockCourseProgressService{complete: &models.CompleteChapterResponse{
				BadgesEarned: []models.EarnedBadge{},
				Progress:     &models.CourseProgressResponse{ProgressPercentage: 33},
			}},
			expectedStatus:  http.StatusOK,
			expectedMessage: "chapter completed",
		},
		{
			name: "course completed",
			progress: &mockCourseProgressService{complete: &models.CompleteChapterResponse{
				CourseCompleted: true,
				BadgesEarned:    []models.EarnedBadge{{ID: "sec-badge", CourseID: "sec"}},
				Progress:        &models.CourseProgressResponse{ProgressPercentage: 100},
			}},
			expectedStatus:  http.StatusOK,
			expectedMessage: "course completed",
		},
		{
			name:           "unknown course",
			progress:       &mockCourseProgressService{err: fmt.Errorf("failed to get course: %w", models.ErrNotFound)},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "chapter of another course",
			progress:       &mockCourseProgressService{err: models.ErrInvalidChapter},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "locked chapter",
			progress:       &mockCourseProgressService{err: models.ErrPrecondition},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "backend unavailable",
			progress:       &mockCourseProgressService{err: models.ErrTransientNetwork},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newCourseRouter(&mockCourseService{}, tt.progress, &mockEnroller{})

			w, resp := doRequest(t, r, http.MethodPut, "/courses/sec/chapters/s1/complete", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "sec", tt.progress.lastCourseID)
			assert.Equal(t, "s1", tt.progress.lastChapterID)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, resp.Success)
				return
			}
			assert.True(t, resp.Success)
			assert.Equal(t, tt.expectedMessage, resp.Message)
			var got models.CompleteChapterResponse
			decodeData(t, resp, &got)
			assert.Equal(t, tt.progress.complete.CourseCompleted, got.CourseCompleted)
			assert.Len(t, got.BadgesEarned, len(tt.progress.complete.BadgesEarned))
		})
	}
}

func TestCourseHandler_RateCourse(t *testing.T) {
	review := "Very practical"

	tests := []struct {
		name           string
		body           any
		err            error
		expectedStatus int
	}{
		{name: "success", body: models.RateCourseRequest{Rating: 5, Review: &review}, expectedStatus: http.StatusOK},
		{name: "malformed body", body: "{rating:", expectedStatus: http.StatusBadRequest},
		{name: "rating out of range", body: models.RateCourseRequest{Rating: 9}, err: fmt.Errorf("rating: %w", models.ErrValidation), expectedStatus: http.StatusBadRequest},
		{name: "unknown course", body: models.RateCourseRequest{Rating: 4}, err: fmt.Errorf("course: %w", models.ErrNotFound), expectedStatus: http.StatusNotFound},
		{name: "not enrolled", body: models.RateCourseRequest{Rating: 4}, err: fmt.Errorf("enroll first: %w", models.ErrPrecondition), expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rater := &mockCourseRater{
				resp: &models.RateCourseResponse{
					Rating:  &models.CourseRating{UserID: 7, CourseID: "sec", Rating: 5, Review: &review},
					Summary: &models.RatingSummary{CourseID: "sec", Ratings: 3, AverageRating: 4.3},
				},
				err: tt.err,
			}
			r := newCourseRouterWithRater(&mockCourseService{}, &mockCourseProgressService{}, &mockEnroller{}, rater)

			w, resp := doRequest(t, r, http.MethodPost, "/courses/sec/rate", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, resp.Success)
				return
			}
			assert.Equal(t, 7, rater.lastUserID)
			assert.Equal(t, "sec", rater.lastCourseID)
			require.NotNil(t, rater.lastRequest)
			assert.Equal(t, 5, rater.lastRequest.Rating)
			assert.Equal(t, "course rated", resp.Message)
			var got models.RateCourseResponse
			decodeData(t, resp, &got)
			assert.Equal(t, 4.3, got.Summary.AverageRating)
		})
	}
}

func TestCourseHandler_RateCourse_RequiresAuth(t *testing.T) {
	h := NewCourseHandler(&mockCourseService{}, &mockCourseProgressService{}, &mockEnroller{}, &mockCourseRater{}, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r, passThrough)

	w, _ := doRequest(t, r, http.MethodPost, "/courses/sec/rate", models.RateCourseRequest{Rating: 5})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
