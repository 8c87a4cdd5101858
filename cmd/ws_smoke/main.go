package main

import (
	"encoding/json"
	"flag"
	"net/url"
	"os"
	"time"

	"microwallet/internal/logger"

	"github.com/gorilla/websocket"
)

// ws_smoke connects to a running server with a session token and prints
// balance updates until the timeout elapses.
func main() {
	addr := flag.String("addr", "localhost:8080", "server host:port")
	token := flag.String("token", os.Getenv("WALLET_TOKEN"), "session token")
	wait := flag.Duration("wait", 30*time.Second, "how long to listen")
	flag.Parse()

	if *token == "" {
		logger.Fatal("token is required (-token or WALLET_TOKEN)")
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: "token=" + url.QueryEscape(*token)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial failed", "url", u.Redacted(), "error", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(*wait)
	_ = conn.SetReadDeadline(deadline)

	received := 0
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			if time.Now().After(deadline) {
				break
			}
			logger.Fatal("read failed", "error", err)
		}
		b, _ := json.Marshal(msg)
		logger.Info("event", "payload", string(b))
		if msg["type"] == "balance_update" {
			received++
		}
	}
	logger.Info("done", "balance_updates", received)
}
