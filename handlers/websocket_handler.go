package handlers

import (
	"log/slog"
	"net/http"

	"github.com/arenaops/tournament-hub/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the frontend origin; access control for
	// the room content happens at the API layer, not the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeTournamentRoom upgrades the connection and subscribes the client to
// live events for one tournament.
// @Summary      Tournament live updates
// @Tags         live
// @Param        tournamentID path int true "Tournament ID"
// @Success      101 "Switching Protocols"
// @Router       /ws/tournaments/{tournamentID} [get]
func (h *WebSocketHandler) ServeTournamentRoom(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, live.TournamentRoom(tournamentID))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
