package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vaccert/vaccination-server/internal/services"
)

// Context keys set by AuthMiddleware
const (
	AdminIDKey       = "admin_id"
	AdminUsernameKey = "admin_username"
)

// TokenVerifier checks bearer tokens
type TokenVerifier interface {
	Verify(token string) (*services.AdminClaims, error)
}

// AuthMiddleware validates admin bearer tokens
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifier.Verify(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, services.ErrMissingCredential) {
				message = "Access denied"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
			return
		}

		c.Set(AdminIDKey, claims.AdminID)
		c.Set(AdminUsernameKey, claims.Username)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header. A header
// without the Bearer scheme yields a value that fails verification.
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return header
	}
	return strings.TrimSpace(token)
}
