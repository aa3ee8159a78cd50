package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cs2hub/backend/models"
)

var ErrServerNotFound = errors.New("server not found")

type ServerRepository interface {
	ListActive(ctx context.Context) ([]models.GameServer, error)
	GetByID(ctx context.Context, id int) (*models.GameServer, error)
	Create(ctx context.Context, server *models.GameServer) error
	Update(ctx context.Context, server *models.GameServer) error
	// MarkOnline перезаписывает живые поля свежими значениями опроса.
	MarkOnline(ctx context.Context, id int, currentPlayers, maxPlayers int, mapName string, updatedAt time.Time) error
	// MarkOffline сбрасывает current_players; max_players и map не трогает.
	MarkOffline(ctx context.Context, id int, updatedAt time.Time) error
	Deactivate(ctx context.Context, id int) error
}

type postgresServerRepository struct {
	db *sql.DB
}

func NewPostgresServerRepository(db *sql.DB) ServerRepository {
	return &postgresServerRepository{db: db}
}

const serverColumns = `
	id, name, ip_address, port, game_type, map, max_players,
	current_players, status, description, order_position, is_active,
	created_at, updated_at`

func scanServer(rowScanner interface{ Scan(dest ...interface{}) error }, s *models.GameServer) error {
	return rowScanner.Scan(
		&s.ID, &s.Name, &s.IPAddress, &s.Port, &s.GameType, &s.Map, &s.MaxPlayers,
		&s.CurrentPlayers, &s.Status, &s.Description, &s.OrderPosition, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

func (r *postgresServerRepository) ListActive(ctx context.Context) ([]models.GameServer, error) {
	query := `SELECT` + serverColumns + `
		FROM servers
		WHERE is_active = true
		ORDER BY order_position, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active servers: %w", err)
	}
	defer rows.Close()

	servers := make([]models.GameServer, 0)
	for rows.Next() {
		var s models.GameServer
		if scanErr := scanServer(rows, &s); scanErr != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", scanErr)
		}
		servers = append(servers, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during server rows iteration: %w", err)
	}
	return servers, nil
}

func (r *postgresServerRepository) GetByID(ctx context.Context, id int) (*models.GameServer, error) {
	query := `SELECT` + serverColumns + `
		FROM servers
		WHERE id = $1 AND is_active = true`

	s := &models.GameServer{}
	err := scanServer(r.db.QueryRowContext(ctx, query, id), s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to find server %d: %w", id, err)
	}
	return s, nil
}

func (r *postgresServerRepository) Create(ctx context.Context, s *models.GameServer) error {
	query := `
		INSERT INTO servers
			(name, ip_address, port, game_type, map, max_players,
			 status, description, order_position, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
		RETURNING id, current_players, is_active, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		s.Name, s.IPAddress, s.Port, s.GameType, s.Map, s.MaxPlayers,
		s.Status, s.Description, s.OrderPosition,
	).Scan(&s.ID, &s.CurrentPlayers, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return nil
}

func (r *postgresServerRepository) Update(ctx context.Context, s *models.GameServer) error {
	query := `
		UPDATE servers SET
			name = $1,
			ip_address = $2,
			port = $3,
			game_type = $4,
			max_players = $5,
			description = $6,
			order_position = $7,
			updated_at = NOW()
		WHERE id = $8 AND is_active = true`

	result, err := r.db.ExecContext(ctx, query,
		s.Name, s.IPAddress, s.Port, s.GameType, s.MaxPlayers,
		s.Description, s.OrderPosition,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update server %d: %w", s.ID, err)
	}
	return checkAffectedRows(result, ErrServerNotFound)
}

func (r *postgresServerRepository) MarkOnline(ctx context.Context, id int, currentPlayers, maxPlayers int, mapName string, updatedAt time.Time) error {
	query := `
		UPDATE servers SET
			status = $1,
			current_players = $2,
			max_players = $3,
			map = $4,
			updated_at = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		models.ServerOnline, currentPlayers, maxPlayers, mapName, updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark server %d online: %w", id, err)
	}
	return checkAffectedRows(result, ErrServerNotFound)
}

func (r *postgresServerRepository) MarkOffline(ctx context.Context, id int, updatedAt time.Time) error {
	query := `
		UPDATE servers SET
			status = $1,
			current_players = 0,
			updated_at = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, models.ServerOffline, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark server %d offline: %w", id, err)
	}
	return checkAffectedRows(result, ErrServerNotFound)
}

func (r *postgresServerRepository) Deactivate(ctx context.Context, id int) error {
	query := `UPDATE servers SET is_active = false, updated_at = NOW() WHERE id = $1 AND is_active = true`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate server %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrServerNotFound)
}
