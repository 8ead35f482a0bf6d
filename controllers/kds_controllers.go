package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fragisir/automatic-resturent-system/kds"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type KDSController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController accepts websocket upgrades from the given origins, or from
// any origin when the list is empty.
func NewKDSController(hub *kds.Hub, allowedOrigins []string) *KDSController {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &KDSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// KDSHandler -> websocket endpoint; WebSocketGroup has already validated the group
func (kc *KDSController) KDSHandler(c *gin.Context) {
	group := c.GetString("ws_group")
	table := c.GetInt("ws_table")

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("Websocket upgrade failed: %v", err)
		return
	}

	utils.InfoLogger.Printf("Websocket subscriber joined %s (table %d)", group, table)
	kds.Serve(kc.Hub, ws, group, table)
	utils.InfoLogger.Printf("Websocket subscriber left %s (table %d)", group, table)
}
