package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shevett/claimit/internal/auth"
	"github.com/shevett/claimit/internal/repository"
	"go.uber.org/zap"
)

// AuthHandler trades an OAuth redirect code for a session token. It is
// the only public mutating endpoint: the user does not have a token yet.
type AuthHandler struct {
	provider   auth.IdentityProvider
	users      repository.UserRepository
	jwtSecret  string
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewAuthHandler(
	provider auth.IdentityProvider,
	users repository.UserRepository,
	jwtSecret string,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider:   provider,
		users:      users,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

type loginRequest struct {
	Code string `json:"code" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /v1/auth/login.
//
// The identity provider verifies the code and returns the profile; we
// upsert the account (refreshing the profile snapshot on every login)
// and issue a session token carrying the user's id and admin flag.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.provider.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		// One generic message for every exchange failure; the provider's
		// reason is for the log, not the client.
		h.logger.Info("code exchange rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login failed"})
		return
	}
	if !profile.EmailVerified {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "email not verified"})
		return
	}

	user, err := h.users.UpsertByExternalID(c.Request.Context(),
		profile.ExternalID, profile.Email, profile.Name, profile.PictureURL)
	if err != nil {
		h.logger.Error("failed to upsert user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.IsAdmin, h.jwtSecret, h.sessionTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: token})
}
