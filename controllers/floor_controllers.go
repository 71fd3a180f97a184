package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/DevenGibbs/starter-restaurant-reservation/hub"
)

// FloorHandler streams reservation and table events to staff dashboards.
type FloorHandler struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewFloorHandler(h *hub.Hub, allowedOrigin string) *FloorHandler {
	return &FloorHandler{
		Hub: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Serve -> endpoint WebSocket /ws/floor
func (fh *FloorHandler) Serve(c *gin.Context) {
	role := c.GetString("role")
	if !Roles[role] {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := fh.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	fh.Hub.Register(ws, role)

	// Klien hanya mendengarkan; pesan masuk diabaikan sampai koneksi putus
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	fh.Hub.Unregister(ws)
}
