package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// NotificationService is the interface that wraps methods for notifications
type NotificationService interface {
	// Method List retrieve a page of the user's notifications with the unread total.
	//
	// An unknown type in "filter" is reported with models.ErrValidation.
	List(ctx context.Context, userID int, filter models.NotificationFilter) (*models.NotificationList, error)
	// Method MarkRead marks one of the user's notifications as read.
	//
	// Notifications of other users are reported with models.ErrNotFound.
	MarkRead(ctx context.Context, userID, notificationID int) (*models.Notification, error)
	// Method MarkAllRead marks every unread notification of the user as read and returns how many changed.
	MarkAllRead(ctx context.Context, userID int) (int, error)
	// Method Create stores a notification for one user.
	//
	// Malformed requests are reported with models.ErrValidation.
	Create(ctx context.Context, req *models.CreateNotificationRequest) (*models.Notification, error)
	// Method Broadcast stores one notification per recipient and returns how many were created.
	//
	// Malformed requests are reported with models.ErrValidation.
	Broadcast(ctx context.Context, req *models.BroadcastNotificationRequest) (int, error)
}

// NotificationHandler handles HTTP requests for notifications
type NotificationHandler struct {
	BaseHandler
	service NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all notification handler routes.
// Creating notifications requires the admin role.
func (h *NotificationHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/notifications", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", h.List)
			r.Put("/read-all", h.MarkAllRead)
			r.Put("/{id}/read", h.MarkRead)
		})
		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
			r.Post("/broadcast", h.Broadcast)
		})
	})
}

// List handles GET /api/notifications
// @Summary My notifications
// @Description List the caller's notifications, newest first, with the unread total
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "Only unread notifications"
// @Param type query string false "Notification type"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20, max: 100)"
// @Success 200 {object} handlers.Response{data=models.NotificationList}
// @Failure 400 {object} handlers.Response
// @Failure 401 {object} handlers.Response
// @Router /api/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	filter, err := parseNotificationFilter(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		h.RespondServiceError(w, err, "failed to list notifications")
		return
	}

	h.RespondJSON(w, http.StatusOK, list)
}

// MarkRead handles PUT /api/notifications/{id}/read
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} handlers.Response{data=models.Notification}
// @Failure 400 {object} handlers.Response
// @Failure 404 {object} handlers.Response
// @Router /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	id, err := intURLParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.service.MarkRead(r.Context(), userID, id)
	if err != nil {
		h.RespondServiceError(w, err, "failed to mark notification as read")
		return
	}

	h.RespondJSON(w, http.StatusOK, n)
}

// MarkAllRead handles PUT /api/notifications/read-all
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.Response{data=map[string]int}
// @Failure 401 {object} handlers.Response
// @Router /api/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to mark notifications as read")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// Create handles POST /api/notifications
// @Summary Create a notification
// @Description Notify one user. High priority notifications are also e-mailed.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateNotificationRequest true "Notification"
// @Success 201 {object} handlers.Response{data=models.Notification}
// @Failure 400 {object} handlers.Response
// @Failure 403 {object} handlers.Response
// @Router /api/notifications [post]
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNotificationRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to create notification")
		return
	}

	h.RespondJSON(w, http.StatusCreated, n)
}

// Broadcast handles POST /api/notifications/broadcast
// @Summary Broadcast a notification
// @Description Notify many users at once
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.BroadcastNotificationRequest true "Notification and recipients"
// @Success 201 {object} handlers.Response{data=map[string]int}
// @Failure 400 {object} handlers.Response
// @Failure 403 {object} handlers.Response
// @Router /api/notifications/broadcast [post]
func (h *NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req models.BroadcastNotificationRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.service.Broadcast(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to broadcast notification")
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]int{"created": created})
}

func parseNotificationFilter(r *http.Request) (models.NotificationFilter, error) {
	q := r.URL.Query()
	filter := models.NotificationFilter{Type: models.NotificationType(q.Get("type"))}

	if v := q.Get("unread_only"); v != "" {
		unread, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid unread_only: %w", models.ErrValidation)
		}
		filter.UnreadOnly = unread
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("invalid page: %w", models.ErrValidation)
		}
		filter.Page = page
	}
	if v := q.Get("count"); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("invalid count: %w", models.ErrValidation)
		}
		filter.Count = count
	}

	return filter, nil
}
