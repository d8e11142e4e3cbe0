package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaccert/vaccination-server/internal/api/middleware"
	"github.com/vaccert/vaccination-server/internal/models"
	"go.uber.org/zap"
)

// Authenticator checks admin credentials
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, models.AdminSummary, error)
}

// AuthHandler handles authentication for the admin dashboard
type AuthHandler struct {
	auth Authenticator
	log  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// Login handles dashboard login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, &req, err)
		return
	}

	token, admin, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, "login", err)
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token: token,
		Admin: admin,
	})
}

// VerifyToken reports the admin behind a token that passed AuthMiddleware
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"admin": models.AdminSummary{
			ID:       c.GetInt64(middleware.AdminIDKey),
			Username: c.GetString(middleware.AdminUsernameKey),
		},
	})
}
