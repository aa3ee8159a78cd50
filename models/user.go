package models

import "time"

// User представляет игрока, вошедшего через Steam.
// Аутентификация живёт во внешнем сервисе; здесь только то,
// что нужно ядру: отображаемое имя и флаг администратора.
type User struct {
	SteamID     string    `json:"steam_id" db:"steam_id"`
	Nickname    *string   `json:"nickname,omitempty" db:"nickname"`
	PersonaName string    `json:"persona_name" db:"persona_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	IsAdmin     bool      `json:"is_admin" db:"is_admin"`
	IsModerator bool      `json:"is_moderator" db:"is_moderator"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
