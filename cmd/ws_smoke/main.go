package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/ws"

	"github.com/gorilla/websocket"
)

// Connects to a running server's /ws and prints every pushed event, pinging
// periodically so the connection is seen as alive.
func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "websocket endpoint")
	token := flag.String("token", os.Getenv("WS_TOKEN"), "bearer token (or set WS_TOKEN)")
	tgID := flag.String("telegram_id", "", "identity to watch when the server does not require auth")
	flag.Parse()

	u, err := url.Parse(*addr)
	if err != nil {
		logger.Fatal("bad addr", "error", err)
	}
	q := u.Query()
	if *token != "" {
		q.Set("token", *token)
	} else if *tgID != "" {
		q.Set("telegram_id", *tgID)
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial failed", "error", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				logger.Info("connection closed", "error", err)
				return
			}
			var msg ws.Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				logger.Warn("unreadable frame", "error", err)
				continue
			}
			if msg.Event == nil {
				fmt.Println(msg.Type)
				continue
			}
			fmt.Printf("%s %s amount=%s balance=%s %v\n",
				msg.Event.At.Format(time.RFC3339), msg.Event.Type, msg.Event.Amount, msg.Event.Balance, msg.Event.Data)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ping, _ := json.Marshal(map[string]string{"type": ws.MsgPing})
			if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				logger.Warn("ping failed", "error", err)
				return
			}
		case <-interrupt:
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
