package events

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/corectl/corectl/pkg/logging"
)

// upgrader configures the websocket handshake for the /events endpoint
// served by "corectl serve". Origin checking is deliberately permissive
// here since the daemon is expected to sit behind a trusted local proxy;
// deployments needing stricter policy wrap the handler.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	streamBufferDepth = 64
	pingInterval      = 30 * time.Second
)

// StreamHandler returns an http.HandlerFunc that upgrades the connection to
// a websocket and streams every Event published on the bus, already
// scrubbed by Emit, as one JSON-encoded text frame per event.
func (b *Bus) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("events", "websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		sub := b.Subscribe(streamBufferDepth)
		defer b.Unsubscribe(sub)

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					logging.Warn("events", "failed to marshal event: %v", err)
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
