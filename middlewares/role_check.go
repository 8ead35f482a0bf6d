package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/fragisir/automatic-resturent-system/utils"
)

// RequireRole lets the request through only when AdminAuth stored one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			utils.RespondAppError(c, utils.NewError(utils.ErrUnauthorized, "unauthorized"))
			c.Abort()
			return
		}

		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}

		utils.RespondAppError(c, utils.NewError(utils.ErrForbidden, "admin access required"))
		c.Abort()
	}
}
