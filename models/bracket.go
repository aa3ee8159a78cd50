package models

import "time"

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusCompleted MatchStatus = "completed"
)

// BracketMatch представляет матч турнирной сетки.
// Player2SteamID равен nil для матча-прохода (bye).
type BracketMatch struct {
	ID             int         `json:"id" db:"id"`
	TournamentID   int         `json:"tournament_id" db:"tournament_id"`
	RoundNumber    int         `json:"round_number" db:"round_number"`
	MatchNumber    int         `json:"match_number" db:"match_number"`
	Player1SteamID string      `json:"player1_steam_id" db:"player1_steam_id"`
	Player2SteamID *string     `json:"player2_steam_id,omitempty" db:"player2_steam_id"`
	WinnerSteamID  *string     `json:"winner_steam_id,omitempty" db:"winner_steam_id"`
	Player1Score   int         `json:"player1_score" db:"player1_score"`
	Player2Score   int         `json:"player2_score" db:"player2_score"`
	Status         MatchStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`

	// Снимки имён участников для отображения сетки
	Player1Name   *string `json:"player1_name,omitempty" db:"-"`
	Player1Avatar *string `json:"player1_avatar,omitempty" db:"-"`
	Player2Name   *string `json:"player2_name,omitempty" db:"-"`
	Player2Avatar *string `json:"player2_avatar,omitempty" db:"-"`
}

// IsBye сообщает, что матч является автоматическим проходом.
func (m *BracketMatch) IsBye() bool {
	return m.Player2SteamID == nil
}
