package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// BadgeCatalog is the interface that wraps the ListBadges method
type BadgeCatalog interface {
	// Method ListBadges retrieve every badge that can be earned, ordered by id.
	ListBadges(ctx context.Context) ([]models.BadgeDefinition, error)
}

// AchievementService is the interface that wraps methods for the caller's badges
type AchievementService interface {
	// Method GetUserBadges retrieve earned badges and the progress toward the others.
	GetUserBadges(ctx context.Context, userID int) (*models.UserBadgesResponse, error)
	// Method CheckAchievements evaluates the badge rules, records new badges and returns them.
	//
	// Calling it again without new progress returns an empty list.
	CheckAchievements(ctx context.Context, userID int) ([]models.EarnedBadge, error)
}

// BadgeHandler handles HTTP requests for badges
type BadgeHandler struct {
	BaseHandler
	catalog      BadgeCatalog
	achievements AchievementService
}

// NewBadgeHandler creates a new badge handler
func NewBadgeHandler(catalog BadgeCatalog, achievements AchievementService, logger *zap.Logger) *BadgeHandler {
	return &BadgeHandler{
		catalog:      catalog,
		achievements: achievements,
		BaseHandler:  BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all badge handler routes
func (h *BadgeHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/badges", func(r chi.Router) {
		r.Get("/", h.ListBadges)
		r.With(authMiddleware).Get("/my-badges", h.MyBadges)
		r.With(authMiddleware).Post("/check-achievements", h.CheckAchievements)
	})
}

// ListBadges handles GET /api/badges
// @Summary Badge catalog
// @Tags badges
// @Produce json
// @Success 200 {object} handlers.Response{data=[]models.BadgeDefinition}
// @Failure 500 {object} handlers.Response
// @Router /api/badges [get]
func (h *BadgeHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	defs, err := h.catalog.ListBadges(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "failed to list badges")
		return
	}

	h.RespondJSON(w, http.StatusOK, defs)
}

// MyBadges handles GET /api/badges/my-badges
// @Summary My badges
// @Description Earned badges and the progress toward the remaining ones
// @Tags badges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.Response{data=models.UserBadgesResponse}
// @Failure 401 {object} handlers.Response
// @Router /api/badges/my-badges [get]
func (h *BadgeHandler) MyBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	resp, err := h.achievements.GetUserBadges(r.Context(), userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get user badges")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// CheckAchievements handles POST /api/badges/check-achievements
// @Summary Check achievements
// @Description Evaluate the badge rules for the caller and award the badges that are now satisfied
// @Tags badges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.Response{data=models.CheckAchievementsResponse}
// @Failure 401 {object} handlers.Response
// @Failure 503 {object} handlers.Response
// @Router /api/badges/check-achievements [post]
func (h *BadgeHandler) CheckAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	earned, err := h.achievements.CheckAchievements(r.Context(), userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to check achievements")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.CheckAchievementsResponse{NewlyEarned: earned})
}
