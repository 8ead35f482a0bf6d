package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fragisir/automatic-resturent-system/services"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type SessionController struct {
	Orchestrator *services.Orchestrator
}

func NewSessionController(orchestrator *services.Orchestrator) *SessionController {
	return &SessionController{Orchestrator: orchestrator}
}

// CreateSession -> called when a customer scans the table QR code
func (sc *SessionController) CreateSession(c *gin.Context) {
	var req struct {
		TableNumber int `json:"tableNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.WrapError(utils.ErrValidation, "Invalid request body", err))
		return
	}

	grant, err := sc.Orchestrator.CreateOrFetchSession(c.Request.Context(), req.TableNumber)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session ready", grant)
}

// RefreshToken -> extends a live session before its token runs out
func (sc *SessionController) RefreshToken(c *gin.Context) {
	var req struct {
		TableNumber int    `json:"tableNumber"`
		SessionID   string `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.WrapError(utils.ErrValidation, "Invalid request body", err))
		return
	}

	grant, err := sc.Orchestrator.RefreshToken(c.Request.Context(), req.TableNumber, req.SessionID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Token refreshed", grant)
}
