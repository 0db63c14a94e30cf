package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/marketplace"
	"github.com/shevett/claimit/internal/middleware"
	"go.uber.org/zap"
)

type ClaimHandler struct {
	svc    *marketplace.Service
	logger *zap.Logger
}

func NewClaimHandler(svc *marketplace.Service, logger *zap.Logger) *ClaimHandler {
	return &ClaimHandler{svc: svc, logger: logger}
}

// Create handles POST /v1/items/:id/claims — join the waitlist.
func (h *ClaimHandler) Create(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	claim, err := h.svc.Claim(c.Request.Context(), middleware.GetUserID(c), itemID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, claim)
}

// Withdraw handles DELETE /v1/items/:id/claims — drop out of the
// waitlist.
func (h *ClaimHandler) Withdraw(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := h.svc.Unclaim(c.Request.Context(), middleware.GetUserID(c), itemID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove handles DELETE /v1/items/:id/claims/:userID — the owner (or
// an admin) removes a specific claimant.
func (h *ClaimHandler) Remove(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.svc.OwnerRemoveClaim(c.Request.Context(), middleware.GetUserID(c), itemID, targetID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List handles GET /v1/items/:id/claims — the waitlist in order. The
// item's visibility rule gates access: whoever may see the item may see
// its waitlist.
func (h *ClaimHandler) List(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	viewerID := middleware.GetUserID(c)

	if _, err := h.svc.GetItem(c.Request.Context(), itemID, viewerID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	claims, err := h.svc.ListActiveClaims(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, claims)
}
