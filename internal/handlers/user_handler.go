package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// EnrollmentService is the interface that wraps methods for the caller's enrollments
type EnrollmentService interface {
	// Method ListUserCourses retrieve the user's enrollments with progress.
	//
	// "status" is one of all, active, completed or paused; empty means all.
	// An unknown status is reported with models.ErrValidation.
	ListUserCourses(ctx context.Context, userID int, status string) ([]models.EnrollmentView, error)
	// Method SetPaused pauses or resumes an enrollment.
	//
	// A missing enrollment is reported with models.ErrNotFound and a completed course with models.ErrPrecondition.
	SetPaused(ctx context.Context, userID int, courseID string, paused bool) (*models.EnrollmentView, error)
}

// StatsService is the interface that wraps the GetUserStats method
type StatsService interface {
	// Method GetUserStats retrieve course, chapter, badge and streak totals of the user.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetUserStats(ctx context.Context, userID int) (*models.UserStats, error)
}

// ProfileService is the interface that wraps methods for account self-service
type ProfileService interface {
	// Method UpdateProfile changes the name or email of the user and returns the updated account.
	//
	// Invalid or missing fields are reported with models.ErrValidation and an email held by another
	// account with models.ErrConflict.
	UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.Account, error)
	// Method ChangePassword replaces the user's password after checking the current one.
	//
	// A wrong current password or a weak new one is reported with models.ErrValidation.
	ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error
}

// UserHandler handles HTTP requests for the caller's profile, courses and statistics
type UserHandler struct {
	BaseHandler
	enrollments EnrollmentService
	stats       StatsService
	profile     ProfileService
}

// NewUserHandler creates a new user handler
func NewUserHandler(enrollments EnrollmentService, stats StatsService, profile ProfileService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		enrollments: enrollments,
		stats:       stats,
		profile:     profile,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all user handler routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/users/me", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Put("/", h.UpdateProfile)
		r.Put("/password", h.ChangePassword)
		r.Get("/courses", h.ListCourses)
		r.Put("/courses/{id}/pause", h.Pause)
		r.Put("/courses/{id}/resume", h.Resume)
		r.Get("/stats", h.Stats)
	})
}

// ListCourses handles GET /api/users/me/courses
// @Summary My courses
// @Description List the caller's enrollments with progress
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param status query string false "all, active, completed or paused (default: all)"
// @Success 200 {object} handlers.Response{data=[]models.EnrollmentView}
// @Failure 400 {object} handlers.Response
// @Failure 401 {object} handlers.Response
// @Router /api/users/me/courses [get]
func (h *UserHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	views, err := h.enrollments.ListUserCourses(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		h.RespondServiceError(w, err, "failed to list user courses")
		return
	}

	h.RespondJSON(w, http.StatusOK, views)
}

// Pause handles PUT /api/users/me/courses/{id}/pause
// @Summary Pause a course
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} handlers.Response{data=models.EnrollmentView}
// @Failure 404 {object} handlers.Response "Not enrolled"
// @Failure 409 {object} handlers.Response "Course already completed"
// @Router /api/users/me/courses/{id}/pause [put]
func (h *UserHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, true)
}

// Resume handles PUT /api/users/me/courses/{id}/resume
// @Summary Resume a course
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} handlers.Response{data=models.EnrollmentView}
// @Failure 404 {object} handlers.Response "Not enrolled"
// @Failure 409 {object} handlers.Response "Course already completed"
// @Router /api/users/me/courses/{id}/resume [put]
func (h *UserHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, false)
}

func (h *UserHandler) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	view, err := h.enrollments.SetPaused(r.Context(), userID, chi.URLParam(r, "id"), paused)
	if err != nil {
		h.RespondServiceError(w, err, "failed to change enrollment status")
		return
	}

	h.RespondJSON(w, http.StatusOK, view)
}

// Stats handles GET /api/users/me/stats
// @Summary My statistics
// @Description Completed and in-progress courses, completed chapters, badges and learning streaks
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.Response{data=models.UserStats}
// @Failure 401 {object} handlers.Response
// @Router /api/users/me/stats [get]
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.stats.GetUserStats(r.Context(), userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get user stats")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}

// UpdateProfile handles PUT /api/users/me
// @Summary Update my profile
// @Description Change the caller's name or email. Omitted fields are kept.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} handlers.Response{data=models.Account}
// @Failure 400 {object} handlers.Response
// @Failure 401 {object} handlers.Response
// @Failure 409 {object} handlers.Response "Email already in use"
// @Router /api/users/me [put]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.profile.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to update profile")
		return
	}

	h.RespondMessage(w, http.StatusOK, "profile updated", account)
}

// ChangePassword handles PUT /api/users/me/password
// @Summary Change my password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} handlers.Response
// @Failure 400 {object} handlers.Response "Wrong current password or weak new password"
// @Failure 401 {object} handlers.Response
// @Router /api/users/me/password [put]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.profile.ChangePassword(r.Context(), userID, &req); err != nil {
		h.RespondServiceError(w, err, "failed to change password")
		return
	}

	h.RespondMessage(w, http.StatusOK, "password changed", nil)
}
