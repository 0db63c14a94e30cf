package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/auth"
)

// ContextKeyUserID is the gin context key holding the validated
// session's user ID.
const ContextKeyUserID = "user_id"

// AuthMiddleware validates the bearer token and aborts with 401 when it
// is missing or invalid. Handlers behind it can rely on GetUserID
// returning a real user.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := sessionClaims(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or invalid bearer token",
			})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches session claims when a valid token is present
// and lets the request through anonymously otherwise. Listing endpoints
// use it: anonymous viewers see public items, authenticated ones also
// get their claim positions and private-community items.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := sessionClaims(c, secret); ok {
			setClaims(c, claims)
		}
		c.Next()
	}
}

func sessionClaims(c *gin.Context, secret string) (*auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	claims, err := auth.ParseToken(parts[1], secret)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
}

// GetUserID returns the authenticated user's ID, or uuid.Nil for an
// anonymous request.
func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

