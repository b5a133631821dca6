package main

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// monitorClient is one connected monitor UI.
type monitorClient struct {
	conn *websocket.Conn
	send chan interface{}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *monitorClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// monitorHub broadcasts ingest progress to any connected websocket client.
type monitorHub struct {
	mu       sync.RWMutex
	clients  map[*monitorClient]bool
	upgrader websocket.Upgrader
}

func newMonitorHub() *monitorHub {
	return &monitorHub{
		clients: make(map[*monitorClient]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *monitorHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] monitor upgrade failed: %v", err)
		return
	}
	client := &monitorClient{conn: conn, send: make(chan interface{}, 16)}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	go client.writePump()

	// discard any inbound frames; drop the client when the socket dies
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				if h.clients[client] {
					delete(h.clients, client)
					close(client.send)
				}
				h.mu.Unlock()
				return
			}
		}
	}()
}

func (h *monitorHub) broadcastJSON(v interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- v:
		default: // slow client, skip this update
		}
	}
}

// serve listens on the given port. Runs until the process exits.
func (h *monitorHub) serve(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	addr := fmt.Sprintf(":%d", port)
	log.Printf("[INFO] monitor listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[ERROR] monitor server: %v", err)
	}
}

// watch broadcasts progress once a second while the run flag holds.
func (h *monitorHub) watch(cfg *Config, rec *Recorder) {
	for cfg.Running() {
		h.broadcastJSON(map[string]interface{}{
			"type":      "progress",
			"max_frame": rec.RecordedFrameNum(),
		})
		time.Sleep(time.Second)
	}
	h.broadcastJSON(map[string]interface{}{
		"type":      "done",
		"max_frame": rec.RecordedFrameNum(),
	})
}
