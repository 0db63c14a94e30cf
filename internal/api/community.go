package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shevett/claimit/internal/marketplace"
	"github.com/shevett/claimit/internal/middleware"
	"go.uber.org/zap"
)

type CommunityHandler struct {
	svc    *marketplace.Service
	logger *zap.Logger
}

func NewCommunityHandler(svc *marketplace.Service, logger *zap.Logger) *CommunityHandler {
	return &CommunityHandler{svc: svc, logger: logger}
}

type createCommunityRequest struct {
	ShortName   string `json:"short_name" binding:"required"`
	FullName    string `json:"full_name" binding:"required"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	WebhookURL  string `json:"webhook_url"`
}

// Create handles POST /v1/communities.
func (h *CommunityHandler) Create(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	community, err := h.svc.CreateCommunity(c.Request.Context(), middleware.GetUserID(c), marketplace.CommunityInput{
		ShortName:   req.ShortName,
		FullName:    req.FullName,
		Description: req.Description,
		Private:     req.Private,
		WebhookURL:  req.WebhookURL,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

// List handles GET /v1/communities.
func (h *CommunityHandler) List(c *gin.Context) {
	communities, err := h.svc.ListCommunities(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

// Join handles POST /v1/communities/:id/join.
func (h *CommunityHandler) Join(c *gin.Context) {
	communityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}
	if err := h.svc.JoinCommunity(c.Request.Context(), middleware.GetUserID(c), communityID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave handles POST /v1/communities/:id/leave.
func (h *CommunityHandler) Leave(c *gin.Context) {
	communityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}
	if err := h.svc.LeaveCommunity(c.Request.Context(), middleware.GetUserID(c), communityID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
