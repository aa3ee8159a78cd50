package models

import "time"

// ServerStatus представляет результат последнего опроса игрового сервера.
type ServerStatus string

const (
	ServerOnline  ServerStatus = "online"
	ServerOffline ServerStatus = "offline"
)

// GameServer представляет игровой сервер сообщества.
// current_players, map и status перезаписываются каждым циклом опроса.
type GameServer struct {
	ID             int          `json:"id" db:"id"`
	Name           string       `json:"name" db:"name"`
	IPAddress      string       `json:"ip_address" db:"ip_address"`
	Port           int          `json:"port" db:"port"`
	GameType       string       `json:"game_type" db:"game_type"`
	Map            *string      `json:"map,omitempty" db:"map"`
	MaxPlayers     int          `json:"max_players" db:"max_players"`
	CurrentPlayers int          `json:"current_players" db:"current_players"`
	Status         ServerStatus `json:"status" db:"status"`
	Description    *string      `json:"description,omitempty" db:"description"`
	OrderPosition  int          `json:"order_position" db:"order_position"`
	IsActive       bool         `json:"is_active" db:"is_active"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}
