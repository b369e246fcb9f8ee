package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for administration
type AdminService interface {
	// Method GetDashboard retrieve platform totals.
	GetDashboard(ctx context.Context) (*models.DashboardStats, error)
	// Method UpdateUserRole changes the role of an account on behalf of "actorID".
	//
	// An unknown role is reported with models.ErrValidation and a change of the actor's own role with
	// models.ErrPrecondition.
	UpdateUserRole(ctx context.Context, actorID, userID int, role models.Role) (*models.Account, error)
	// Method ListUsers get a page of accounts filtered by role, status and a search over name and email.
	//
	// Page defaults to 1 and count to 20. An unknown role is reported with models.ErrValidation.
	ListUsers(ctx context.Context, filter models.UserListFilter) (*models.UserList, error)
	// Method ToggleUserStatus activates a disabled account or disables an active one on behalf of "actorID".
	//
	// Disabling the actor's own account is reported with models.ErrPrecondition.
	ToggleUserStatus(ctx context.Context, actorID, userID int) (*models.Account, error)
	// Method GetCourseStats retrieve enrollment, completion, progress and rating figures per catalog course.
	GetCourseStats(ctx context.Context) ([]models.CourseStats, error)
	// Method GetActivityReport retrieve daily activity for the last "period" days; zero selects 30.
	//
	// A period outside 1 to 365 is reported with models.ErrValidation.
	GetActivityReport(ctx context.Context, period int) (*models.ActivityReport, error)
}

// AdminHandler handles HTTP requests for administrators
type AdminHandler struct {
	BaseHandler
	service AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all admin handler routes
func (h *AdminHandler) RegisterRoutes(r chi.Router, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/users", h.ListUsers)
		r.Put("/users/{id}/role", h.UpdateRole)
		r.Put("/users/{id}/toggle-status", h.ToggleStatus)
		r.Get("/courses/stats", h.CourseStats)
		r.Get("/reports/activity", h.ActivityReport)
	})
}

// Dashboard handles GET /api/admin/dashboard
// @Summary Admin dashboard
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.Response{data=models.DashboardStats}
// @Failure 403 {object} handlers.Response
// @Router /api/admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboard(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "failed to get dashboard")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}

// UpdateRole handles PUT /api/admin/users/{id}/role
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body models.UpdateRoleRequest true "New role"
// @Success 200 {object} handlers.Response{data=models.Account}
// @Failure 400 {object} handlers.Response
// @Failure 404 {object} handlers.Response
// @Failure 409 {object} handlers.Response "Own role"
// @Router /api/admin/users/{id}/role [put]
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	userID, err := intURLParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateRoleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.service.UpdateUserRole(r.Context(), actorID, userID, req.Role)
	if err != nil {
		h.RespondServiceError(w, err, "failed to update user role")
		return
	}

	h.RespondJSON(w, http.StatusOK, account)
}

// ListUsers handles GET /api/admin/users
// @Summary List users
// @Description Paginated list of users with optional role, status and search filters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20, max: 100)"
// @Param role query string false "student, instructor or admin"
// @Param active query bool false "Filter by account status"
// @Param search query string false "Search in name or email"
// @Success 200 {object} handlers.Response{data=models.UserList}
// @Failure 400 {object} handlers.Response
// @Failure 403 {object} handlers.Response
// @Router /api/admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.UserListFilter{
		Role:   models.Role(strings.TrimSpace(query.Get("role"))),
		Search: strings.TrimSpace(query.Get("search")),
	}

	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filter.Page = p
		}
	}

	if countStr := query.Get("count"); countStr != "" {
		if c, err := strconv.Atoi(countStr); err == nil && c > 0 {
			filter.Count = c
		}
	}

	if activeStr := query.Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		filter.Active = &active
	}

	users, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		h.RespondServiceError(w, err, "failed to list users")
		return
	}

	h.RespondJSON(w, http.StatusOK, users)
}

// ToggleStatus handles PUT /api/admin/users/{id}/toggle-status
// @Summary Activate or deactivate a user
// @Description Deactivated users cannot log in
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} handlers.Response{data=models.Account}
// @Failure 400 {object} handlers.Response
// @Failure 404 {object} handlers.Response
// @Failure 409 {object} handlers.Response "Own account"
// @Router /api/admin/users/{id}/toggle-status [put]
func (h *AdminHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	userID, err := intURLParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.service.ToggleUserStatus(r.Context(), actorID, userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to toggle user status")
		return
	}

	message := "user deactivated"
	if account.IsActive {
		message = "user activated"
	}
	h.RespondMessage(w, http.StatusOK, message, account)
}

// CourseStats handles GET /api/admin/courses/stats
// @Summary Course statistics
// @Description Enrollments, completions, average progress and ratings per catalog course
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.Response{data=[]models.CourseStats}
// @Failure 403 {object} handlers.Response
// @Router /api/admin/courses/stats [get]
func (h *AdminHandler) CourseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetCourseStats(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "failed to get course stats")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}

// ActivityReport handles GET /api/admin/reports/activity
// @Summary Activity report
// @Description Daily active learners, enrollments and completions over the last period, oldest day first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param period query int false "Number of days, 1 to 365 (default: 30)"
// @Success 200 {object} handlers.Response{data=models.ActivityReport}
// @Failure 400 {object} handlers.Response
// @Failure 403 {object} handlers.Response
// @Router /api/admin/reports/activity [get]
func (h *AdminHandler) ActivityReport(w http.ResponseWriter, r *http.Request) {
	period := 0
	if periodStr := r.URL.Query().Get("period"); periodStr != "" {
		p, err := strconv.Atoi(periodStr)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "period must be a number of days")
			return
		}
		period = p
	}

	report, err := h.service.GetActivityReport(r.Context(), period)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get activity report")
		return
	}

	h.RespondJSON(w, http.StatusOK, report)
}
