package models

import "time"

// Registration представляет заявку игрока на турнир.
// Пара (tournament_id, steam_id) уникальна.
type Registration struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	SteamID      string     `json:"steam_id" db:"steam_id"`
	PersonaName  string     `json:"persona_name" db:"persona_name"`
	AvatarURL    *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	RegisteredAt time.Time  `json:"registered_at" db:"registered_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
}

// Confirmed сообщает, подтвердил ли игрок участие.
// Только подтверждённые заявки попадают в посев сетки.
func (r *Registration) Confirmed() bool {
	return r.ConfirmedAt != nil
}
