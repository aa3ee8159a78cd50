package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cs2hub/backend/middleware"
	"github.com/cs2hub/backend/services"
)

// RegistrationHandler покрывает заявки игроков на участие в турнирах.
// Steam ID игрока всегда берётся из токена, не из тела запроса.
type RegistrationHandler struct {
	tournaments *services.TournamentService
	logger      *slog.Logger
}

func NewRegistrationHandler(tournaments *services.TournamentService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{tournaments: tournaments, logger: logger}
}

// RegisterHandler обрабатывает POST /tournaments/{tournamentID}/registrations.
func (h *RegistrationHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	steamID, err := middleware.GetSteamIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input struct {
		PersonaName string  `json:"persona_name"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	reg, err := h.tournaments.Register(r.Context(), tournamentID, steamID, input.PersonaName, input.AvatarURL)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": reg}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// ConfirmHandler обрабатывает PATCH /tournaments/{tournamentID}/registrations/confirm.
func (h *RegistrationHandler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	steamID, err := middleware.GetSteamIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.tournaments.ConfirmParticipation(r.Context(), tournamentID, steamID); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"confirmed": true}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// WithdrawHandler обрабатывает DELETE /tournaments/{tournamentID}/registrations.
func (h *RegistrationHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	steamID, err := middleware.GetSteamIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.tournaments.Withdraw(r.Context(), tournamentID, steamID); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
