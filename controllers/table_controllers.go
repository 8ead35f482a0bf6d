package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fragisir/automatic-resturent-system/services"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type TableController struct {
	Orchestrator *services.Orchestrator
}

func NewTableController(orchestrator *services.Orchestrator) *TableController {
	return &TableController{Orchestrator: orchestrator}
}

// GetAllTables -> available / reserved / occupied, derived from sessions and orders
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Orchestrator.Tables(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}
