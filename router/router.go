package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fragisir/automatic-resturent-system/config"
	"github.com/fragisir/automatic-resturent-system/controllers"
	"github.com/fragisir/automatic-resturent-system/kds"
	"github.com/fragisir/automatic-resturent-system/middlewares"
	"github.com/fragisir/automatic-resturent-system/services"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type Dependencies struct {
	Config       *config.Config
	Orchestrator *services.Orchestrator
	Hub          *kds.Hub
	AdminTokens  *utils.AdminTokens
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middlewares.LoggerMiddleware(),
		middlewares.SecurityHeaders(),
		middlewares.CORSMiddlewares(cfg.CORSAllowedOrigins),
	)

	r.GET("/ping", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "pong", nil)
	})

	sessionController := controllers.NewSessionController(deps.Orchestrator)
	orderController := controllers.NewOrderController(deps.Orchestrator)
	menuController := controllers.NewMenuController(deps.Orchestrator)
	tableController := controllers.NewTableController(deps.Orchestrator)
	adminController := controllers.NewAdminController(deps.Orchestrator, deps.AdminTokens, cfg.AdminUsername, cfg.AdminPasswordHash)
	kdsController := controllers.NewKDSController(deps.Hub, cfg.CORSAllowedOrigins)

	customerLimit := middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit()
	loginLimit := middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit()

	api := r.Group("/api")
	{
		orders := api.Group("/orders")
		{
			orders.POST("/create-session", customerLimit, sessionController.CreateSession)
			orders.POST("/refresh-token", sessionController.RefreshToken)
			orders.POST("", customerLimit, orderController.CreateOrder)
			orders.GET("", orderController.GetAllOrders)
			orders.GET("/active/:tableNumber", orderController.GetActiveOrder)
			orders.PUT("/:id/status", orderController.UpdateOrderStatus)
			orders.DELETE("/:id", orderController.CancelOrder)
			orders.DELETE("/sessions/clear-all",
				middlewares.AdminAuth(deps.AdminTokens),
				middlewares.RequireRole(utils.RoleAdmin),
				adminController.ClearAllSessions,
			)
		}

		api.GET("/tables", tableController.GetAllTables)
		api.GET("/menu", menuController.GetAllMenus)
		api.POST("/admin/login", loginLimit, adminController.Login)
	}

	r.GET("/ws/:group", middlewares.WebSocketGroup(cfg.TableCount), kdsController.KDSHandler)

	return r
}
