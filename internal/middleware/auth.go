package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lochan861/mt/internal/auth"
	"github.com/lochan861/mt/internal/util"
)

// AuthMiddleware validates "Authorization: Bearer <jwt>" and stores the user
func AuthMiddleware(authService auth.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			util.RespondUnauthorized(c, "missing bearer token")
			return
		}

		user, err := authService.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(util.ContextUserKey, user)
		c.Set(util.ContextUserIDKey, user.ID)
		c.Next()
	}
}
