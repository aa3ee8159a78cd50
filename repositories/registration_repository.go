package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cs2hub/backend/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationConflict          = errors.New("player is already registered for this tournament")
	ErrRegistrationTournamentInvalid = errors.New("registration references unknown tournament")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	Get(ctx context.Context, tournamentID int, steamID string) (*models.Registration, error)
	Confirm(ctx context.Context, tournamentID int, steamID string, confirmedAt time.Time) error
	Delete(ctx context.Context, tournamentID int, steamID string) error
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	// ListConfirmed возвращает подтверждённые заявки в порядке подтверждения.
	// Этот порядок — вход генератора сетки.
	ListConfirmed(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO tournament_registrations
			(tournament_id, steam_id, persona_name, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, registered_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.TournamentID,
		reg.SteamID,
		reg.PersonaName,
		reg.AvatarURL,
	).Scan(&reg.ID, &reg.RegisteredAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrRegistrationConflict
			case "23503": // foreign_key_violation
				return ErrRegistrationTournamentInvalid
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) Get(ctx context.Context, tournamentID int, steamID string) (*models.Registration, error) {
	query := `
		SELECT id, tournament_id, steam_id, persona_name, avatar_url, registered_at, confirmed_at
		FROM tournament_registrations
		WHERE tournament_id = $1 AND steam_id = $2`

	reg := &models.Registration{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, steamID).Scan(
		&reg.ID, &reg.TournamentID, &reg.SteamID, &reg.PersonaName,
		&reg.AvatarURL, &reg.RegisteredAt, &reg.ConfirmedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) Confirm(ctx context.Context, tournamentID int, steamID string, confirmedAt time.Time) error {
	query := `
		UPDATE tournament_registrations SET confirmed_at = $1
		WHERE tournament_id = $2 AND steam_id = $3`

	result, err := r.db.ExecContext(ctx, query, confirmedAt, tournamentID, steamID)
	if err != nil {
		return fmt.Errorf("failed to confirm registration: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, tournamentID int, steamID string) error {
	query := `DELETE FROM tournament_registrations WHERE tournament_id = $1 AND steam_id = $2`
	result, err := r.db.ExecContext(ctx, query, tournamentID, steamID)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM tournament_registrations WHERE tournament_id = $1`

	var count int
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) ListConfirmed(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, steam_id, persona_name, avatar_url, registered_at, confirmed_at
		FROM tournament_registrations
		WHERE tournament_id = $1 AND confirmed_at IS NOT NULL
		ORDER BY confirmed_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmed registrations for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if scanErr := rows.Scan(
			&reg.ID, &reg.TournamentID, &reg.SteamID, &reg.PersonaName,
			&reg.AvatarURL, &reg.RegisteredAt, &reg.ConfirmedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		regs = append(regs, &reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	query := `
		SELECT tr.id, tr.tournament_id, tr.steam_id,
		       COALESCE(u.nickname, tr.persona_name) AS persona_name,
		       tr.avatar_url, tr.registered_at, tr.confirmed_at
		FROM tournament_registrations tr
		LEFT JOIN users u ON tr.steam_id = u.steam_id
		WHERE tr.tournament_id = $1
		ORDER BY tr.registered_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	regs := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if scanErr := rows.Scan(
			&reg.ID, &reg.TournamentID, &reg.SteamID, &reg.PersonaName,
			&reg.AvatarURL, &reg.RegisteredAt, &reg.ConfirmedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		regs = append(regs, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}
	return regs, nil
}
