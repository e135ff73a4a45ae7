package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sbkim/settlement-flow/internal/application/service"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
)

const userContextKey = "current_user"

// AuthMiddleware resolves the bearer credential to a directory user before
// any handler runs. Verification precedes every repository transaction.
func AuthMiddleware(directory service.DirectoryService, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "authentication required",
			})
			return
		}

		user, err := directory.Resolve(c.Request.Context(), token)
		if err != nil {
			logger.Info("Credential rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "authentication required",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// currentUser returns the resolved user set by AuthMiddleware.
func currentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*entity.User); ok {
			return user
		}
	}
	return nil
}
