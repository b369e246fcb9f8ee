package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

const accessTokenCookie = "access_token"

// AuthService is the interface that wraps methods for registration and login
type AuthService interface {
	// Method Register creates an account and returns an access token for it.
	//
	// Malformed input is reported with models.ErrValidation, a taken email with models.ErrConflict.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	// Method Login verifies the credentials and returns an access token.
	//
	// Bad credentials or an inactive account are reported with models.ErrUnauthorized.
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	// Method Me retrieve the account of the authenticated user.
	//
	// If the account does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	Me(ctx context.Context, userID int) (*models.Account, error)
}

// AuthHandler handles HTTP requests for authentication
type AuthHandler struct {
	BaseHandler
	service AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authMiddleware).Get("/me", h.Me)
	})
}

// Register handles POST /api/auth/register
// @Summary Register a new user
// @Description Create a student or instructor account and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} handlers.Response{data=models.AuthResponse}
// @Failure 400 {object} handlers.Response "Invalid input"
// @Failure 409 {object} handlers.Response "Email already registered"
// @Failure 500 {object} handlers.Response
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to register user")
		return
	}

	setTokenCookie(w, resp.Token)
	h.RespondMessage(w, http.StatusCreated, "registration successful", resp)
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Verify credentials and return an access token. The token is also set as the access_token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} handlers.Response{data=models.AuthResponse}
// @Failure 400 {object} handlers.Response
// @Failure 401 {object} handlers.Response "Invalid credentials"
// @Failure 500 {object} handlers.Response
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to log in")
		return
	}

	setTokenCookie(w, resp.Token)
	h.RespondMessage(w, http.StatusOK, "login successful", resp)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Description Return the account of the token owner
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.Response{data=models.Account}
// @Failure 401 {object} handlers.Response
// @Failure 404 {object} handlers.Response
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	account, err := h.service.Me(r.Context(), userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get current user")
		return
	}

	h.RespondJSON(w, http.StatusOK, account)
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
