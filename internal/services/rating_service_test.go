package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/sources/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockRatingRepository is a mock implementation of RatingRepository
type mockRatingRepository struct {
	ratings   map[string]models.CourseRating
	upsertErr error
	countErr  error
}

func newMockRatingRepository() *mockRatingRepository {
	return &mockRatingRepository{ratings: map[string]models.CourseRating{}}
}

func (m *mockRatingRepository) Upsert(ctx context.Context, rating *models.CourseRating) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.ratings[fmt.Sprintf("%d/%s", rating.UserID, rating.CourseID)] = *rating
	return nil
}

func (m *mockRatingRepository) CountAndSum(ctx context.Context, courseID string) (int, int, error) {
	if m.countErr != nil {
		return 0, 0, m.countErr
	}
	count, sum := 0, 0
	for _, r := range m.ratings {
		if r.CourseID == courseID {
			count++
			sum += r.Rating
		}
	}
	return count, sum, nil
}

func newTestRatingService(t *testing.T) (*ratingService, *mockRatingRepository) {
	t.Helper()
	repo := newMockRatingRepository()
	enrollments := newMockEnrollmentRepository()
	for _, userID := range []int{1, 2} {
		_, err := enrollments.Ensure(context.Background(), userID, "sec")
		require.NoError(t, err)
	}
	return NewRatingService(repo, memory.NewStore(testCatalogCourses()), enrollments, zap.NewNop()), repo
}

func TestRatingService_RateCourse(t *testing.T) {
	tests := []struct {
		name           string
		userID         int
		courseID       string
		req            *models.RateCourseRequest
		expectedReview *string
		expectedError  error
	}{
		{name: "rating with review", userID: 1, courseID: "sec", req: &models.RateCourseRequest{Rating: 5, Review: strPtr("  Very practical ")}, expectedReview: strPtr("Very practical")},
		{name: "blank review is dropped", userID: 1, courseID: "sec", req: &models.RateCourseRequest{Rating: 4, Review: strPtr("   ")}},
		{name: "rating without review", userID: 1, courseID: "sec", req: &models.RateCourseRequest{Rating: 1}},
		{name: "rating too low", userID: 1, courseID: "sec", req: &models.RateCourseRequest{Rating: 0}, expectedError: models.ErrValidation},
		{name: "rating too high", userID: 1, courseID: "sec", req: &models.RateCourseRequest{Rating: 6}, expectedError: models.ErrValidation},
		{name: "review too long", userID: 1, courseID: "sec", req: &models.RateCourseRequest{Rating: 3, Review: strPtr(strings.Repeat("x", 2001))}, expectedError: models.ErrValidation},
		{name: "unknown course", userID: 1, courseID: "nope", req: &models.RateCourseRequest{Rating: 3}, expectedError: models.ErrNotFound},
		{name: "not enrolled", userID: 1, courseID: "com", req: &models.RateCourseRequest{Rating: 3}, expectedError: models.ErrPrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestRatingService(t)

			resp, err := svc.RateCourse(context.Background(), tt.userID, tt.courseID, tt.req)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
				assert.Empty(t, repo.ratings)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.Rating, resp.Rating.Rating)
			assert.Equal(t, tt.expectedReview, resp.Rating.Review)
			assert.Equal(t, 1, resp.Summary.Ratings)
			assert.Equal(t, float64(tt.req.Rating), resp.Summary.AverageRating)
		})
	}
}

func TestRatingService_RateCourse_ReplacesAndAverages(t *testing.T) {
	svc, _ := newTestRatingService(t)
	ctx := context.Background()

	_, err := svc.RateCourse(ctx, 1, "sec", &models.RateCourseRequest{Rating: 2})
	require.NoError(t, err)
	_, err = svc.RateCourse(ctx, 2, "sec", &models.RateCourseRequest{Rating: 4})
	require.NoError(t, err)

	// the second rating by user 1 replaces the first one
	resp, err := svc.RateCourse(ctx, 1, "sec", &models.RateCourseRequest{Rating: 5})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Summary.Ratings)
	assert.Equal(t, 4.5, resp.Summary.AverageRating)
}

func TestRatingService_RateCourse_RepositoryErrors(t *testing.T) {
	t.Run("upsert", func(t *testing.T) {
		svc, repo := newTestRatingService(t)
		repo.upsertErr = errors.New("database error")

		resp, err := svc.RateCourse(context.Background(), 1, "sec", &models.RateCourseRequest{Rating: 3})

		assert.Error(t, err)
		assert.Nil(t, resp)
	})

	t.Run("summary", func(t *testing.T) {
		svc, repo := newTestRatingService(t)
		repo.countErr = errors.New("database error")

		resp, err := svc.RateCourse(context.Background(), 1, "sec", &models.RateCourseRequest{Rating: 3})

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, averageRating(0, 0))
	assert.Equal(t, 4.0, averageRating(8, 2))
	assert.Equal(t, 3.7, averageRating(11, 3))
}
