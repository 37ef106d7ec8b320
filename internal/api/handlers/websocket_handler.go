package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/smarttodo-be/internal/services"
	ws "github.com/isdelr/smarttodo-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades authenticated connections and attaches them to
// the hub under the caller's user id.
type WebSocketHandler struct {
	hub      *ws.Hub
	auth     services.AuthServiceProvider
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Only browsers on
// allowedOrigin (or clients sending no Origin) may connect.
func NewWebSocketHandler(hub *ws.Hub, authService services.AuthServiceProvider, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:  hub,
		auth: authService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Serve handles the WebSocket connection request. Browsers cannot set
// headers on a websocket handshake, so the token may also come as ?token=.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if token := r.URL.Query().Get("token"); header == "" && token != "" {
		header = "Bearer " + token
	}

	claims, err := h.auth.VerifyToken(header)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected websocket connection")
		respondError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleIncomingWSMessage)
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Str("user_id", client.UserID).Msg("Error decoding websocket message")
		h.hub.Reply(client, ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case "ping":
		pong, err := ws.NewMessage(ws.ActionPong, nil)
		if err != nil {
			return
		}
		h.hub.Reply(client, pong)
	default:
		log.Warn().Str("action", msg.Action).Str("user_id", client.UserID).Msg("Unknown websocket action received")
		h.hub.Reply(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}
