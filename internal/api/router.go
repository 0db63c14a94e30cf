package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shevett/claimit/internal/middleware"
)

// Handlers bundles everything RegisterRoutes wires up.
type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Item      *ItemHandler
	Claim     *ClaimHandler
	Community *CommunityHandler
	Image     *ImageHandler
}

// RegisterRoutes attaches all v1 routes. Reads run behind OptionalAuth
// so anonymous browsing works; every mutation requires a session.
func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string) {
	// Public: load balancers health-check without credentials.
	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/v1/auth/login", h.Auth.Login)
	r.GET("/v1/images/*key", h.Image.Get)

	read := r.Group("/v1")
	read.Use(middleware.OptionalAuth(jwtSecret))
	{
		read.GET("/items", h.Item.List)
		read.GET("/items/:id", h.Item.Get)
		read.GET("/items/:id/claims", h.Claim.List)
		read.GET("/communities", h.Community.List)
	}

	authed := r.Group("/v1")
	authed.Use(middleware.AuthMiddleware(jwtSecret))
	{
		authed.GET("/users/me", h.User.GetMe)
		authed.PATCH("/users/me/preferences", h.User.UpdatePrefs)
		authed.GET("/users/me/items", h.User.ListMyItems)
		authed.GET("/users/me/claims", h.User.ListMyClaims)

		authed.POST("/items", h.Item.Create)
		authed.PATCH("/items/:id", h.Item.Edit)
		authed.DELETE("/items/:id", h.Item.Delete)
		authed.POST("/items/:id/gone", h.Item.MarkGone)
		authed.POST("/items/:id/relist", h.Item.Relist)
		authed.PUT("/items/:id/communities", h.Item.SetCommunities)

		authed.POST("/items/:id/claims", h.Claim.Create)
		authed.DELETE("/items/:id/claims", h.Claim.Withdraw)
		authed.DELETE("/items/:id/claims/:userID", h.Claim.Remove)

		authed.POST("/communities", h.Community.Create)
		authed.POST("/communities/:id/join", h.Community.Join)
		authed.POST("/communities/:id/leave", h.Community.Leave)
	}
}
