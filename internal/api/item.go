package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/marketplace"
	"github.com/shevett/claimit/internal/middleware"
	"go.uber.org/zap"
)

type ItemHandler struct {
	svc    *marketplace.Service
	logger *zap.Logger
}

func NewItemHandler(svc *marketplace.Service, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{svc: svc, logger: logger}
}

// createItemRequest is the JSON body for POST /v1/items. CommunityIDs
// is a pointer: absent means "default community", present-but-empty
// means "no communities" (staged item).
type createItemRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	PriceCents   int64    `json:"price_cents"`
	ContactEmail string   `json:"contact_email"`
	CommunityIDs *[]int64 `json:"community_ids"`
}

// Create handles POST /v1/items. JSON posts an item without photos;
// multipart/form-data carries the same fields plus "photo" and
// repeated "extra_photos" files.
func (h *ItemHandler) Create(c *gin.Context) {
	var input marketplace.PostItemInput

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		parsed, err := h.parseMultipart(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input = *parsed
	} else {
		var req createItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input = marketplace.PostItemInput{
			Title:        req.Title,
			Description:  req.Description,
			PriceCents:   req.PriceCents,
			ContactEmail: req.ContactEmail,
		}
		if req.CommunityIDs != nil {
			input.CommunityIDs = *req.CommunityIDs
		}
	}

	item, err := h.svc.PostItem(c.Request.Context(), middleware.GetUserID(c), input)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) parseMultipart(c *gin.Context) (*marketplace.PostItemInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	field := func(name string) string {
		if values := form.Value[name]; len(values) > 0 {
			return values[0]
		}
		return ""
	}

	input := &marketplace.PostItemInput{
		Title:        field("title"),
		Description:  field("description"),
		ContactEmail: field("contact_email"),
	}
	if priceStr := field("price_cents"); priceStr != "" {
		price, err := strconv.ParseInt(priceStr, 10, 64)
		if err != nil {
			return nil, err
		}
		input.PriceCents = price
	}
	if values, ok := form.Value["community_ids"]; ok {
		// The field being present at all selects explicit communities;
		// an empty value stages the item.
		ids := []int64{}
		for _, value := range values {
			for _, part := range strings.Split(value, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				id, err := strconv.ParseInt(part, 10, 64)
				if err != nil {
					return nil, err
				}
				ids = append(ids, id)
			}
		}
		input.CommunityIDs = ids
	}

	readFile := func(name string) ([]byte, error) {
		files := form.File[name]
		if len(files) == 0 {
			return nil, nil
		}
		f, err := files[0].Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	if photo, err := readFile("photo"); err != nil {
		return nil, err
	} else if photo != nil {
		input.Photo = photo
	}
	for _, header := range form.File["extra_photos"] {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		input.ExtraPhotos = append(input.ExtraPhotos, data)
	}

	return input, nil
}

// List handles GET /v1/items?include_gone=&community_id=...
func (h *ItemHandler) List(c *gin.Context) {
	query := marketplace.ListQuery{
		IncludeGone: c.Query("include_gone") == "true",
		ViewerID:    middleware.GetUserID(c),
	}
	for _, value := range c.QueryArray("community_id") {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
			return
		}
		query.CommunityIDs = append(query.CommunityIDs, id)
	}

	views, err := h.svc.ListItems(c.Request.Context(), query)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get handles GET /v1/items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	view, err := h.svc.GetItem(c.Request.Context(), itemID, middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type editItemRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// Edit handles PATCH /v1/items/:id.
func (h *ItemHandler) Edit(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	var req editItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.svc.EditItem(c.Request.Context(), middleware.GetUserID(c), itemID, req.Title, req.Description)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// MarkGone handles POST /v1/items/:id/gone.
func (h *ItemHandler) MarkGone(c *gin.Context) {
	h.transition(c, h.svc.MarkGone)
}

// Relist handles POST /v1/items/:id/relist.
func (h *ItemHandler) Relist(c *gin.Context) {
	h.transition(c, h.svc.Relist)
}

// Delete handles DELETE /v1/items/:id.
func (h *ItemHandler) Delete(c *gin.Context) {
	h.transition(c, h.svc.DeleteItem)
}

func (h *ItemHandler) transition(c *gin.Context, op func(ctx context.Context, actorID, itemID uuid.UUID) error) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	if err := op(c.Request.Context(), middleware.GetUserID(c), itemID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setCommunitiesRequest struct {
	CommunityIDs []int64 `json:"community_ids"`
}

// SetCommunities handles PUT /v1/items/:id/communities.
func (h *ItemHandler) SetCommunities(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	var req setCommunitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.SetItemCommunities(c.Request.Context(), middleware.GetUserID(c), itemID, req.CommunityIDs); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
