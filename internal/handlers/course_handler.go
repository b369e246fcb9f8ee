package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for course catalog browsing
type CourseService interface {
	// Method ListCourses retrieve catalog courses ordered by title.
	//
	// "category" and "search" parameters narrow the result; empty values are not applied.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	ListCourses(ctx context.Context, category, search string) ([]models.Course, error)
	// Method ListCategories retrieve the distinct course categories in alphabetical order.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	ListCategories(ctx context.Context) ([]string, error)
}

// CourseProgressService is the interface that wraps methods for course progress of a learner
type CourseProgressService interface {
	// Method GetCourseProgress retrieve a course with the per-chapter state of the user.
	//
	// If the user or the course does not exist, an error wrapping models.ErrNotFound will be returned.
	GetCourseProgress(ctx context.Context, userID int, courseID string) (*models.CourseProgressResponse, error)
	// Method CompleteChapter marks a chapter as completed and awards the badges it unlocks.
	//
	// A chapter outside the course is reported with models.ErrInvalidChapter and a locked chapter with
	// models.ErrPrecondition. Completing a chapter twice returns the same state without new badges.
	CompleteChapter(ctx context.Context, userID int, courseID, chapterID string) (*models.CompleteChapterResponse, error)
}

// Enroller is the interface that wraps the Enroll method
type Enroller interface {
	// Method Enroll enrolls the user in a course. Enrolling twice keeps the first enrollment.
	//
	// If the course does not exist, an error wrapping models.ErrNotFound will be returned.
	Enroll(ctx context.Context, userID int, courseID string) (*models.EnrollmentView, error)
}

// CourseRater is the interface that wraps the RateCourse method
type CourseRater interface {
	// Method RateCourse stores the user's 1 to 5 rating of a course with an optional review.
	//
	// An out of range rating is reported with models.ErrValidation, an unknown course with models.ErrNotFound
	// and a user who is not enrolled with models.ErrPrecondition.
	RateCourse(ctx context.Context, userID int, courseID string, req *models.RateCourseRequest) (*models.RateCourseResponse, error)
}

// CourseHandler handles HTTP requests for the course catalog and chapter completion
type CourseHandler struct {
	BaseHandler
	courses     CourseService
	progress    CourseProgressService
	enrollments Enroller
	ratings     CourseRater
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(
	courses CourseService,
	progress CourseProgressService,
	enrollments Enroller,
	ratings CourseRater,
	logger *zap.Logger,
) *CourseHandler {
	return &CourseHandler{
		courses:     courses,
		progress:    progress,
		enrollments: enrollments,
		ratings:     ratings,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
func (h *CourseHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.ListCourses)
		r.Get("/categories/list", h.ListCategories)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/{id}", h.GetCourse)
			r.Post("/{id}/enroll", h.Enroll)
			r.Put("/{id}/chapters/{chapterId}/complete", h.CompleteChapter)
			r.Post("/{id}/rate", h.RateCourse)
		})
	})
}

// ListCourses handles GET /api/courses
// @Summary List courses
// @Description List catalog courses filtered by category and a search term
// @Tags courses
// @Produce json
// @Param category query string false "Category name (case-insensitive)"
// @Param search query string false "Search in title and description"
// @Success 200 {object} handlers.Response{data=[]models.Course}
// @Failure 503 {object} handlers.Response "Backend unavailable"
// @Failure 500 {object} handlers.Response
// @Router /api/courses [get]
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("search")

	courses, err := h.courses.ListCourses(r.Context(), category, search)
	if err != nil {
		h.RespondServiceError(w, err, "failed to list courses")
		return
	}

	h.RespondJSON(w, http.StatusOK, courses)
}

// ListCategories handles GET /api/courses/categories/list
// @Summary List categories
// @Description List the distinct course categories
// @Tags courses
// @Produce json
// @Success 200 {object} handlers.Response{data=[]string}
// @Failure 500 {object} handlers.Response
// @Router /api/courses/categories/list [get]
func (h *CourseHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.courses.ListCategories(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "failed to list categories")
		return
	}

	h.RespondJSON(w, http.StatusOK, categories)
}

// GetCourse handles GET /api/courses/{id}
// @Summary Course with progress
// @Description Get a course with the caller's progress and the lock state of every chapter
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} handlers.Response{data=models.CourseProgressResponse}
// @Failure 401 {object} handlers.Response
// @Failure 404 {object} handlers.Response
// @Failure 503 {object} handlers.Response
// @Router /api/courses/{id} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	resp, err := h.progress.GetCourseProgress(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, err, "failed to get course")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// Enroll handles POST /api/courses/{id}/enroll
// @Summary Enroll in a course
// @Description Enroll the caller in a course; enrolling twice is not an error
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} handlers.Response{data=models.EnrollmentView}
// @Failure 401 {object} handlers.Response
// @Failure 404 {object} handlers.Response
// @Router /api/courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	view, err := h.enrollments.Enroll(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, err, "failed to enroll")
		return
	}

	h.RespondMessage(w, http.StatusOK, "enrolled", view)
}

// CompleteChapter handles PUT /api/courses/{id}/chapters/{chapterId}/complete
// @Summary Complete a chapter
// @Description Mark an unlocked chapter as completed. Completing the last chapter completes the course and awards its badge.
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param chapterId path string true "Chapter ID"
// @Success 200 {object} handlers.Response{data=models.CompleteChapterResponse}
// @Failure 401 {object} handlers.Response
// @Failure 404 {object} handlers.Response "Unknown user or course"
// @Failure 409 {object} handlers.Response "Chapter is locked"
// @Failure 422 {object} handlers.Response "Chapter does not belong to the course"
// @Failure 503 {object} handlers.Response "Backend unavailable, retry"
// @Router /api/courses/{id}/chapters/{chapterId}/complete [put]
func (h *CourseHandler) CompleteChapter(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	courseID := chi.URLParam(r, "id")
	chapterID := chi.URLParam(r, "chapterId")

	resp, err := h.progress.CompleteChapter(r.Context(), userID, courseID, chapterID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to complete chapter")
		return
	}

	message := "chapter completed"
	if resp.CourseCompleted {
		message = "course completed"
	}
	h.RespondMessage(w, http.StatusOK, message, resp)
}

// RateCourse handles POST /api/courses/{id}/rate
// @Summary Rate a course
// @Description Rate an enrolled course from 1 to 5 with an optional review. Rating again replaces the earlier rating.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param request body models.RateCourseRequest true "Rating"
// @Success 200 {object} handlers.Response{data=models.RateCourseResponse}
// @Failure 400 {object} handlers.Response
// @Failure 401 {object} handlers.Response
// @Failure 404 {object} handlers.Response
// @Failure 409 {object} handlers.Response "Not enrolled"
// @Router /api/courses/{id}/rate [post]
func (h *CourseHandler) RateCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req models.RateCourseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.ratings.RateCourse(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to rate course")
		return
	}

	h.RespondMessage(w, http.StatusOK, "course rated", resp)
}
