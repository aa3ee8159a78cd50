package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

// TournamentType определяет формат участия: одиночный или командный.
type TournamentType string

const (
	TypeSolo TournamentType = "solo"
	TypeTeam TournamentType = "team"
)

// Tournament представляет турнир.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Description     *string          `json:"description,omitempty" db:"description"`
	PrizePool       int              `json:"prize_pool" db:"prize_pool"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	TournamentType  TournamentType   `json:"tournament_type" db:"tournament_type"`
	Game            string           `json:"game" db:"game"`
	StartDate       time.Time        `json:"start_date" db:"start_date"`
	Status          TournamentStatus `json:"status" db:"status"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	LogoKey         *string          `json:"-" db:"logo_key"`
	LogoURL         *string          `json:"logo_url,omitempty" db:"-"`

	// Заполняются списочными запросами, напрямую не мапятся.
	ParticipantsCount int   `json:"participants_count" db:"-"`
	IsRegistered      *bool `json:"is_registered,omitempty" db:"-"`

	// Опциональные связанные сущности
	Participants []Registration `json:"participants,omitempty" db:"-"`
	Bracket      []BracketMatch `json:"bracket,omitempty" db:"-"`
}

// RegistrationCloses возвращает момент закрытия окна регистрации:
// за час до старта турнира.
func (t *Tournament) RegistrationCloses() time.Time {
	return t.StartDate.Add(-time.Hour)
}
