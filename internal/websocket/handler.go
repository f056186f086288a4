package websocket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/neboloop/outfitswitch/internal/logging"
	"github.com/neboloop/outfitswitch/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Hosts are local browser extensions with arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades host connections and hands them to the hub.
func Handler(hub *realtime.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := r.URL.Query().Get("clientId")
		if clientID == "" {
			clientID = "host-" + uuid.Must(uuid.NewV7()).String()
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Errorf("WebSocket upgrade error: %v", err)
			return
		}

		logging.Infof("Serving WebSocket for host %s", clientID)
		realtime.ServeWS(hub, conn, clientID)
	}
}
