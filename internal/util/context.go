package util

import (
	"github.com/gin-gonic/gin"
	"github.com/lochan861/mt/internal/models"
)

// Context keys set by the auth middleware
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// GetUserFromContext returns the authenticated user. When absent it responds
// with 401 and returns false.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		RespondUnauthorized(c, "user not authenticated")
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok {
		RespondInternalError(c)
		return nil, false
	}
	return user, true
}

// GetUserIDFromContext returns the authenticated user's ID, responding 401 when absent
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextUserIDKey)
	if userID == "" {
		RespondUnauthorized(c, "user not authenticated")
		return "", false
	}
	return userID, true
}
