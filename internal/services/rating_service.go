package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

const (
	minRating       = 1
	maxRating       = 5
	maxReviewLength = 2000
)

// RatingRepository is the interface that wraps methods for course ratings
type RatingRepository interface {
	// Method Upsert stores a rating, replacing the user's earlier rating of the same course.
	//
	// If some error occurs during data insert, the error will be returned.
	Upsert(ctx context.Context, rating *models.CourseRating) error
	// Method CountAndSum retrieve the number of ratings of a course and the sum of their values.
	//
	// If some error occurs during data retrieve, the error will be returned together with zero values.
	CountAndSum(ctx context.Context, courseID string) (int, int, error)
}

// EnrollmentReader is the interface that wraps the Get method of the enrollment repository
type EnrollmentReader interface {
	// Method Get retrieve the enrollment of a user in a course.
	//
	// If the user is not enrolled, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	Get(ctx context.Context, userID int, courseID string) (*models.Enrollment, error)
}

type ratingService struct {
	repo        RatingRepository
	courses     CourseSource
	enrollments EnrollmentReader
	logger      *zap.Logger
}

// NewRatingService creates a new course rating service
func NewRatingService(repo RatingRepository, courses CourseSource, enrollments EnrollmentReader, logger *zap.Logger) *ratingService {
	return &ratingService{
		repo:        repo,
		courses:     courses,
		enrollments: enrollments,
		logger:      logger,
	}
}

// RateCourse stores the user's rating of a course. Only enrolled users may rate, and rating again replaces
// the earlier rating.
func (s *ratingService) RateCourse(ctx context.Context, userID int, courseID string, req *models.RateCourseRequest) (*models.RateCourseResponse, error) {
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, fmt.Errorf("rating must be between %d and %d: %w", minRating, maxRating, models.ErrValidation)
	}

	var review *string
	if req.Review != nil {
		if trimmed := strings.TrimSpace(*req.Review); trimmed != "" {
			if len([]rune(trimmed)) > maxReviewLength {
				return nil, fmt.Errorf("review must be at most %d characters: %w", maxReviewLength, models.ErrValidation)
			}
			review = &trimmed
		}
	}

	if _, err := s.courses.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	if _, err := s.enrollments.Get(ctx, userID, courseID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("enroll in course %s before rating it: %w", courseID, models.ErrPrecondition)
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	rating := &models.CourseRating{
		UserID:   userID,
		CourseID: courseID,
		Rating:   req.Rating,
		Review:   review,
	}
	if err := s.repo.Upsert(ctx, rating); err != nil {
		return nil, err
	}

	count, sum, err := s.repo.CountAndSum(ctx, courseID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("course rated",
		zap.Int("user_id", userID),
		zap.String("course_id", courseID),
		zap.Int("rating", req.Rating),
	)

	return &models.RateCourseResponse{
		Rating: rating,
		Summary: &models.RatingSummary{
			CourseID:      courseID,
			Ratings:       count,
			AverageRating: averageRating(sum, count),
		},
	}, nil
}
