package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cs2hub/backend/models"
	"github.com/cs2hub/backend/services"
)

type ServerHandler struct {
	servers *services.ServerService
	status  *services.ServerStatusService
	logger  *slog.Logger
}

func NewServerHandler(servers *services.ServerService, status *services.ServerStatusService, logger *slog.Logger) *ServerHandler {
	return &ServerHandler{servers: servers, status: status, logger: logger}
}

type serverInput struct {
	Name          string  `json:"name"`
	IPAddress     string  `json:"ip_address"`
	Port          int     `json:"port"`
	GameType      string  `json:"game_type"`
	MaxPlayers    int     `json:"max_players"`
	Description   *string `json:"description"`
	OrderPosition int     `json:"order_position"`
}

func (in *serverInput) toModel() *models.GameServer {
	return &models.GameServer{
		Name:          in.Name,
		IPAddress:     in.IPAddress,
		Port:          in.Port,
		GameType:      in.GameType,
		MaxPlayers:    in.MaxPlayers,
		Description:   in.Description,
		OrderPosition: in.OrderPosition,
	}
}

// ListHandler обрабатывает GET /servers: отдаёт последнее известное
// состояние без обращения к игровым серверам.
func (h *ServerHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	servers, err := h.servers.ListServers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"servers": servers}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// RefreshHandler обрабатывает GET/POST /servers/refresh: опрашивает
// активные серверы и возвращает свежие статусы. Параметр server_id
// ограничивает опрос одним сервером.
func (h *ServerHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if idStr := r.URL.Query().Get("server_id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			badRequestResponse(w, errors.New("invalid server_id query parameter"))
			return
		}

		server, err := h.status.RefreshOne(r.Context(), id)
		if err != nil {
			mapServiceErrorToHTTP(w, h.logger, err)
			return
		}
		if err := writeJSON(w, http.StatusOK, jsonResponse{"server": server}); err != nil {
			serverErrorResponse(w, h.logger, err)
		}
		return
	}

	servers, err := h.status.RefreshAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"servers": servers}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// GetByIDHandler обрабатывает GET /servers/{serverID}.
func (h *ServerHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	server, err := h.servers.GetServer(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"server": server}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// CreateHandler обрабатывает POST /servers.
func (h *ServerHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input serverInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	server := input.toModel()
	if err := h.servers.CreateServer(r.Context(), server); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"server": server}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// UpdateHandler обрабатывает PUT /servers/{serverID}.
func (h *ServerHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input serverInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	server := input.toModel()
	if err := h.servers.UpdateServer(r.Context(), id, server); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"server": server}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// DeleteHandler обрабатывает DELETE /servers/{serverID}.
func (h *ServerHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.servers.DeleteServer(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
