package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/learnhub/backend/internal/badges"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// CourseSource is the interface that wraps methods for course catalog access.
//
// It is implemented by the MySQL course repository, the in-memory store, the remote backend
// client and the Redis catalog cache.
type CourseSource interface {
	// Method ListCourses retrieve courses matching the filter ordered by title.
	//
	// Empty "filter" fields are not applied.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	// Method GetCourse retrieve a course with its ordered chapters.
	//
	// "courseID" parameter is used to identify the course.
	// If the course does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
}

type courseService struct {
	source    CourseSource
	evaluator *badges.Evaluator
	logger    *zap.Logger
}

// NewCourseService creates a new course catalog service
func NewCourseService(source CourseSource, evaluator *badges.Evaluator, logger *zap.Logger) *courseService {
	return &courseService{
		source:    source,
		evaluator: evaluator,
		logger:    logger,
	}
}

// ListCourses returns the catalog filtered by category and a search term
func (s *courseService) ListCourses(ctx context.Context, category, search string) ([]models.Course, error) {
	filter := models.CourseFilter{
		Category: strings.TrimSpace(category),
		Search:   strings.TrimSpace(search),
	}

	courses, err := s.source.ListCourses(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list courses", zap.Error(err))
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, nil
}

// ListCategories returns the distinct course categories in alphabetical order
func (s *courseService) ListCategories(ctx context.Context) ([]string, error) {
	courses, err := s.source.ListCourses(ctx, models.CourseFilter{})
	if err != nil {
		s.logger.Error("failed to list courses for categories", zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, c := range courses {
		if c.Category == "" {
			continue
		}
		if _, ok := seen[c.Category]; ok {
			continue
		}
		seen[c.Category] = struct{}{}
		categories = append(categories, c.Category)
	}
	sort.Strings(categories)

	return categories, nil
}

// ListBadges returns every badge that can be earned: configured rules and course badges
func (s *courseService) ListBadges(ctx context.Context) ([]models.BadgeDefinition, error) {
	courses, err := s.source.ListCourses(ctx, models.CourseFilter{})
	if err != nil {
		s.logger.Error("failed to list courses for badges", zap.Error(err))
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}

	catalog := badges.NewCatalog(courses)
	return s.evaluator.With(badges.CourseBadgeDefinitions(catalog)).Definitions(), nil
}
