package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	authMiddleware "github.com/learnhub/backend/internal/auth/middleware"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// Response is the envelope of every API reply
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a successful JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	h.write(w, status, Response{Success: true, Data: data})
}

// RespondMessage sends a successful JSON response with a message
func (h *BaseHandler) RespondMessage(w http.ResponseWriter, status int, message string, data any) {
	h.write(w, status, Response{Success: true, Data: data, Message: message})
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.write(w, status, Response{Success: false, Message: message})
}

// RespondServiceError maps an error returned by a service to a status code and responds with it.
// Server side failures are logged and their details are not exposed.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error, operation string) {
	status := StatusFromError(err)
	switch status {
	case http.StatusInternalServerError:
		h.Logger.Error(operation, zap.Error(err))
		h.RespondError(w, status, "internal server error")
	case http.StatusServiceUnavailable:
		h.Logger.Warn(operation, zap.Error(err))
		h.RespondError(w, status, "backend unavailable, please retry")
	default:
		h.Logger.Debug(operation, zap.Error(err))
		h.RespondError(w, status, err.Error())
	}
}

// StatusFromError returns the HTTP status code of an error from the models error taxonomy
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidChapter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrPrecondition), errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrTransientNetwork):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into dst
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", models.ErrValidation)
	}
	return nil
}

func (h *BaseHandler) write(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// currentUserID extracts the authenticated user ID from the request context.
// It responds with 401 when it is missing.
func (h *BaseHandler) currentUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return 0, false
	}
	return userID, true
}

// intURLParam parses a positive integer path parameter
func intURLParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, models.ErrValidation)
	}
	return v, nil
}
