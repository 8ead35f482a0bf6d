package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/fragisir/automatic-resturent-system/services"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type AdminController struct {
	Orchestrator *services.Orchestrator
	Tokens       *utils.AdminTokens
	Username     string
	PasswordHash string
}

func NewAdminController(orchestrator *services.Orchestrator, tokens *utils.AdminTokens, username, passwordHash string) *AdminController {
	return &AdminController{
		Orchestrator: orchestrator,
		Tokens:       tokens,
		Username:     username,
		PasswordHash: passwordHash,
	}
}

// Login -> return JWT for the staff account
func (ac *AdminController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondAppError(c, utils.WrapError(utils.ErrValidation, "username and password are required", err))
		return
	}

	invalid := utils.NewError(utils.ErrUnauthorized, "invalid credentials")
	if ac.PasswordHash == "" {
		utils.RespondAppError(c, invalid)
		return
	}
	if subtle.ConstantTimeCompare([]byte(input.Username), []byte(ac.Username)) != 1 {
		utils.RespondAppError(c, invalid)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ac.PasswordHash), []byte(input.Password)); err != nil {
		utils.RespondAppError(c, invalid)
		return
	}

	token, err := ac.Tokens.GenerateToken(input.Username, utils.RoleAdmin)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for %s", input.Username)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{"token": token})
}

// ClearAllSessions -> wipes every session row, admin only
func (ac *AdminController) ClearAllSessions(c *gin.Context) {
	deleted, err := ac.Orchestrator.ClearAllSessions(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All sessions cleared", gin.H{"deleted": deleted})
}
