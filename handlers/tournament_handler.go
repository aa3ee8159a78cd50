package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cs2hub/backend/middleware"
	"github.com/cs2hub/backend/models"
	"github.com/cs2hub/backend/repositories"
	"github.com/cs2hub/backend/services"
)

type TournamentHandler struct {
	tournaments *services.TournamentService
	logger      *slog.Logger
}

func NewTournamentHandler(tournaments *services.TournamentService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments, logger: logger}
}

type tournamentInput struct {
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	PrizePool       int       `json:"prize_pool"`
	MaxParticipants int       `json:"max_participants"`
	TournamentType  string    `json:"tournament_type"`
	Game            string    `json:"game"`
	StartDate       time.Time `json:"start_date"`
}

func (in *tournamentInput) toModel() *models.Tournament {
	return &models.Tournament{
		Name:            in.Name,
		Description:     in.Description,
		PrizePool:       in.PrizePool,
		MaxParticipants: in.MaxParticipants,
		TournamentType:  models.TournamentType(in.TournamentType),
		Game:            in.Game,
		StartDate:       in.StartDate,
	}
}

// ListHandler обрабатывает GET /tournaments.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		switch status {
		case models.StatusUpcoming, models.StatusOngoing, models.StatusCompleted:
			filter.Status = &status
		default:
			badRequestResponse(w, errors.New("invalid status query parameter"))
			return
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		} else {
			badRequestResponse(w, errors.New("invalid limit query parameter"))
			return
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		} else {
			badRequestResponse(w, errors.New("invalid offset query parameter"))
			return
		}
	}
	filter.SteamID = middleware.SteamIDFromContext(r.Context())

	tournaments, err := h.tournaments.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}.
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	viewer := middleware.SteamIDFromContext(r.Context())
	tournament, err := h.tournaments.GetTournamentDetails(r.Context(), id, viewer)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// CreateHandler обрабатывает POST /tournaments.
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input tournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament := input.toModel()
	if err := h.tournaments.CreateTournament(r.Context(), tournament); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// UpdateHandler обрабатывает PUT /tournaments/{tournamentID}.
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input tournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament := input.toModel()
	if err := h.tournaments.UpdateTournament(r.Context(), id, tournament); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// UpdateStatusHandler обрабатывает PATCH /tournaments/{tournamentID}/status.
func (h *TournamentHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.tournaments.UpdateStatus(r.Context(), id, models.TournamentStatus(input.Status)); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": input.Status}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// DeleteHandler обрабатывает DELETE /tournaments/{tournamentID}.
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.tournaments.DeleteTournament(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadLogoHandler обрабатывает POST /tournaments/{tournamentID}/logo.
// Тело запроса — сырое содержимое файла, тип берётся из Content-Type.
func (h *TournamentHandler) UploadLogoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, errors.New("Content-Type header is required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20) // 5MB
	url, err := h.tournaments.UploadLogo(r.Context(), id, contentType, r.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"logo_url": url}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}
