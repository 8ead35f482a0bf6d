package middlewares

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fragisir/automatic-resturent-system/kds"
	"github.com/fragisir/automatic-resturent-system/utils"
)

// WebSocketGroup checks the subscriber group and, for customers, the table
// before the connection is upgraded.
func WebSocketGroup(tableCount int) gin.HandlerFunc {
	return func(c *gin.Context) {
		group := c.Param("group")
		if !kds.ValidGroup(group) {
			utils.RespondAppError(c, utils.NewError(utils.ErrValidation, "Unknown subscriber group"))
			c.Abort()
			return
		}

		table := 0
		if group == kds.GroupCustomer {
			n, err := strconv.Atoi(c.Query("table"))
			if err != nil || n < 1 || n > tableCount {
				utils.RespondAppError(c, utils.NewError(utils.ErrValidation, "Invalid table number"))
				c.Abort()
				return
			}
			table = n
		}

		c.Set("ws_group", group)
		c.Set("ws_table", table)
		c.Next()
	}
}
