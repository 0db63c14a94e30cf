package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shevett/claimit/internal/storage"
	"go.uber.org/zap"
)

// ImageHandler serves stored item photos. Everything in the store is
// JPEG (the imaging pipeline re-encodes on upload), so the content type
// is fixed.
type ImageHandler struct {
	store  storage.Store
	logger *zap.Logger
}

func NewImageHandler(store storage.Store, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{store: store, logger: logger}
}

// Get handles GET /v1/images/*key.
func (h *ImageHandler) Get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image key"})
		return
	}

	data, err := h.store.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to read image", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/jpeg", data)
}
