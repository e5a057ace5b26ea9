// Package api exposes the engine over HTTP for the Telegram mini app.
// Handlers translate transport concerns only; all rules live in the services.
package api

import (
	"net/http"

	"rewards_academy/pkg/auth"
	"rewards_academy/pkg/logger"

	"github.com/gin-gonic/gin"
)

// currentUser pulls the authenticated Telegram user placed into the context
// by the auth middleware. A missing value means the route was wired without
// the middleware, which is a programming error, so the request is aborted.
func currentUser(c *gin.Context) (*auth.TelegramUserData, bool) {
	userData, exists := c.Get("telegram_user")
	if !exists {
		logger.Logger().Error("telegram user data not found in context")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	user, ok := userData.(*auth.TelegramUserData)
	if !ok {
		logger.Logger().Error("invalid type assertion for telegram user data")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	return user, true
}
