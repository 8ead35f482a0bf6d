package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fragisir/automatic-resturent-system/services"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type OrderController struct {
	Orchestrator *services.Orchestrator
}

func NewOrderController(orchestrator *services.Orchestrator) *OrderController {
	return &OrderController{Orchestrator: orchestrator}
}

// GetAllOrders -> newest first, optional ?status=
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orchestrator.ListOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.WrapError(utils.ErrValidation, "Invalid request body", err))
		return
	}

	order, err := oc.Orchestrator.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.WrapError(utils.ErrValidation, "Invalid request body", err))
		return
	}

	order, err := oc.Orchestrator.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// CancelOrder -> only NEW orders can be cancelled
func (oc *OrderController) CancelOrder(c *gin.Context) {
	result, err := oc.Orchestrator.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order cancelled", result)
}

// GetActiveOrder -> the table's open order for the customer holding the token
func (oc *OrderController) GetActiveOrder(c *gin.Context) {
	tableNumber, err := strconv.Atoi(c.Param("tableNumber"))
	if err != nil {
		utils.RespondAppError(c, utils.NewError(utils.ErrValidation, "Invalid table number"))
		return
	}

	order, err := oc.Orchestrator.ActiveOrder(c.Request.Context(), tableNumber, c.Query("token"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Active order", gin.H{"activeOrder": order})
}
