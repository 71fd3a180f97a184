package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/DevenGibbs/starter-restaurant-reservation/utils"
)

// WebSocketAuthMiddleware authenticates browsers that cannot set headers on
// the upgrade request; the token comes from the query string.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", claims.Role)
		c.Set("userID", claims.UserID)

		c.Next()
	}
}
