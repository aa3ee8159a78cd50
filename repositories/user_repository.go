package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cs2hub/backend/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository — граница с внешним провайдером идентичности.
// Ядру нужны только поиск по steam_id и флаг администратора.
type UserRepository interface {
	GetBySteamID(ctx context.Context, steamID string) (*models.User, error)
	IsAdmin(ctx context.Context, steamID string) (bool, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetBySteamID(ctx context.Context, steamID string) (*models.User, error) {
	query := `
		SELECT steam_id, nickname, persona_name, avatar_url, is_admin, is_moderator, created_at
		FROM users
		WHERE steam_id = $1`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, steamID).Scan(
		&u.SteamID, &u.Nickname, &u.PersonaName, &u.AvatarURL,
		&u.IsAdmin, &u.IsModerator, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user %s: %w", steamID, err)
	}
	return u, nil
}

// IsAdmin возвращает false для неизвестного steam_id, без ошибки.
func (r *postgresUserRepository) IsAdmin(ctx context.Context, steamID string) (bool, error) {
	query := `SELECT is_admin FROM users WHERE steam_id = $1`

	var isAdmin bool
	err := r.db.QueryRowContext(ctx, query, steamID).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check admin flag for %s: %w", steamID, err)
	}
	return isAdmin, nil
}
