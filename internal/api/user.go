package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shevett/claimit/internal/marketplace"
	"github.com/shevett/claimit/internal/middleware"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository"
	"go.uber.org/zap"
)

type UserHandler struct {
	users  repository.UserRepository
	svc    *marketplace.Service
	logger *zap.Logger
}

func NewUserHandler(users repository.UserRepository, svc *marketplace.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, svc: svc, logger: logger}
}

// GetMe handles GET /v1/users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type prefsRequest struct {
	ShowGoneItems           bool `json:"show_gone_items"`
	EmailNotifications      bool `json:"email_notifications"`
	NewListingNotifications bool `json:"new_listing_notifications"`
}

// UpdatePrefs handles PATCH /v1/users/me/preferences.
func (h *UserHandler) UpdatePrefs(c *gin.Context) {
	var req prefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs := models.UserPrefs{
		ShowGoneItems:           req.ShowGoneItems,
		EmailNotifications:      req.EmailNotifications,
		NewListingNotifications: req.NewListingNotifications,
	}
	if err := h.users.UpdatePrefs(c.Request.Context(), middleware.GetUserID(c), prefs); err != nil {
		h.logger.Error("failed to update prefs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preferences"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ListMyItems handles GET /v1/users/me/items.
func (h *UserHandler) ListMyItems(c *gin.Context) {
	includeGone := c.Query("include_gone") == "true"
	views, err := h.svc.ListUserItems(c.Request.Context(), middleware.GetUserID(c), includeGone)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ListMyClaims handles GET /v1/users/me/claims.
func (h *UserHandler) ListMyClaims(c *gin.Context) {
	views, err := h.svc.ListUserClaims(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
