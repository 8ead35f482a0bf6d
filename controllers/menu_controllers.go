package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fragisir/automatic-resturent-system/services"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type MenuController struct {
	Orchestrator *services.Orchestrator
}

func NewMenuController(orchestrator *services.Orchestrator) *MenuController {
	return &MenuController{Orchestrator: orchestrator}
}

func (mc *MenuController) GetAllMenus(c *gin.Context) {
	items, err := mc.Orchestrator.Menu(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}
