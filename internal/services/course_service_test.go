package services

import (
	"context"
	"errors"
	"testing"

	"github.com/learnhub/backend/internal/badges"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/sources/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingCourseSource is a CourseSource that always fails
type failingCourseSource struct {
	err error
}

func (f *failingCourseSource) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	return nil, f.err
}

func (f *failingCourseSource) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	return nil, f.err
}

func newTestCourseService() *courseService {
	courses := append(testCatalogCourses(), models.Course{
		ID: "sec2", Title: "Advanced Security", Category: "Security", Description: "Zero trust networks",
		Chapters: []models.Chapter{{ID: "a1"}},
	})
	return NewCourseService(memory.NewStore(courses), badges.NewEvaluator(testRules()), zap.NewNop())
}

func TestCourseService_ListCourses(t *testing.T) {
	tests := []struct {
		name        string
		category    string
		search      string
		expectedIDs []string
	}{
		{name: "all", expectedIDs: []string{"sec2", "com", "sec"}},
		{name: "by category", category: " security ", expectedIDs: []string{"sec2", "sec"}},
		{name: "by search in description", search: "zero trust", expectedIDs: []string{"sec2"}},
		{name: "no match", category: "Cooking", expectedIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestCourseService()

			courses, err := svc.ListCourses(context.Background(), tt.category, tt.search)

			require.NoError(t, err)
			ids := make([]string, 0, len(courses))
			for _, c := range courses {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestCourseService_ListCategories(t *testing.T) {
	svc := newTestCourseService()

	categories, err := svc.ListCategories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Communication", "Security"}, categories)
}

func TestCourseService_ListBadges(t *testing.T) {
	svc := newTestCourseService()

	defs, err := svc.ListBadges(context.Background())

	require.NoError(t, err)
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"first-course", "sec-badge", "streak-2"}, ids)
	assert.Equal(t, "sec", defs[1].CourseID)
	require.NotNil(t, defs[1].Criterion)
	assert.Equal(t, models.CriterionCourseCompleted, defs[1].Criterion.Type)
}

func TestCourseService_SourceErrors(t *testing.T) {
	svc := NewCourseService(&failingCourseSource{err: errors.New("backend down")}, badges.NewEvaluator(nil), zap.NewNop())
	ctx := context.Background()

	_, err := svc.ListCourses(ctx, "", "")
	assert.Error(t, err)
	_, err = svc.ListCategories(ctx)
	assert.Error(t, err)
	_, err = svc.ListBadges(ctx)
	assert.Error(t, err)
}
