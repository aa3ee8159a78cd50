package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/cs2hub/backend/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Браузерные клиенты ходят с разных origin; доступ только на чтение.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeTournament подписывает клиента на обновления сетки турнира:
// GET /ws/tournaments/{tournamentID}.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := strconv.Atoi(chi.URLParam(r, "tournamentID"))
	if err != nil || tournamentID <= 0 {
		http.Error(w, "invalid tournamentID", http.StatusBadRequest)
		return
	}
	h.serve(w, r, live.TournamentRoom(tournamentID))
}

// ServeServers подписывает клиента на обновления статусов серверов:
// GET /ws/servers.
func (h *WebSocketHandler) ServeServers(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, live.ServersRoom)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту HTTP-ошибкой.
		h.logger.Warn("websocket upgrade failed",
			slog.String("room", room), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, room)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
