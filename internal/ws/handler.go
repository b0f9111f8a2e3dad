package ws

import (
	"net/http"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades the request and subscribes it to the caller's events.
// The identity comes from ?token=; when authRequired is false a bare
// ?telegram_id= is accepted as well.
func HandleWS(hub *Hub, authRequired bool, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		identity, ok := wsIdentity(c, authRequired)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized", "message": "token required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(identity, conn, hub)
		go client.Run()
	}
}

func wsIdentity(c *gin.Context, authRequired bool) (string, bool) {
	if token := c.Query("token"); token != "" {
		identity, err := service.ParseJWT(token)
		return identity, err == nil
	}
	if authRequired {
		return "", false
	}
	identity := c.Query("telegram_id")
	return identity, domain.ValidateIdentity(identity) == nil
}
