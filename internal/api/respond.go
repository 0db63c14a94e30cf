package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shevett/claimit/internal/marketplace"
	"go.uber.org/zap"
)

// writeError translates the service's typed errors into HTTP statuses.
// Conflict-class errors (someone already acted) are deliberately
// distinct from not-found so clients can render them differently.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case marketplace.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, marketplace.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, marketplace.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.Is(err, marketplace.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, marketplace.ErrCommunityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
	case errors.Is(err, marketplace.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "you already have an active claim on this item"})
	case errors.Is(err, marketplace.ErrOwnerCannotClaim):
		c.JSON(http.StatusConflict, gin.H{"error": "you cannot claim your own item"})
	case errors.Is(err, marketplace.ErrNoActiveClaim):
		c.JSON(http.StatusConflict, gin.H{"error": "no active claim to remove"})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
