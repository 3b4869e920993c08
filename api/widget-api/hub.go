// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package widget_api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	internal_type "github.com/rapidaai/quizcapture/internal/type"
	"github.com/rapidaai/quizcapture/pkg/commons"
)

var eventUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is one host-bound notification relayed over the event socket.
type Event struct {
	Type        string `json:"type"` // alert | state | progress | completed
	WidgetID    string `json:"widgetId"`
	Key         string `json:"key,omitempty"`
	State       string `json:"state,omitempty"`
	Phase       string `json:"phase,omitempty"`
	Pct         int    `json:"pct,omitempty"`
	Filename    string `json:"filename,omitempty"`
	AutoAdvance bool   `json:"autoAdvance,omitempty"`
}

// EventHub fans session notifications out to every connected host page over
// WebSocket. It is the production Notifier implementation; widgets keep
// working when no host is connected, events are simply dropped.
type EventHub struct {
	logger commons.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewEventHub(logger commons.Logger) *EventHub {
	return &EventHub{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Serve upgrades the request and keeps the connection registered until the
// peer goes away. Inbound messages are discarded; the socket is one-way.
func (h *EventHub) Serve(c *gin.Context) {
	conn, err := eventUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("event socket upgrade failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to upgrade to websocket"})
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.logger.Debugf("event socket connected (%d clients)", h.clientCount())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
	h.logger.Debugf("event socket closed (%d clients)", h.clientCount())
}

func (h *EventHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventHub) broadcast(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.logger.Errorf("marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *EventHub) Alert(widgetID string, key internal_type.AlertKey) {
	h.broadcast(Event{Type: "alert", WidgetID: widgetID, Key: string(key)})
}

func (h *EventHub) StateChanged(widgetID string, state internal_type.SessionState) {
	h.broadcast(Event{Type: "state", WidgetID: widgetID, State: string(state)})
}

func (h *EventHub) Progress(widgetID string, phase string, pct int) {
	h.broadcast(Event{Type: "progress", WidgetID: widgetID, Phase: phase, Pct: pct})
}

func (h *EventHub) Completed(widgetID string, filename string, autoAdvance bool) {
	h.broadcast(Event{Type: "completed", WidgetID: widgetID, Filename: filename, AutoAdvance: autoAdvance})
}
