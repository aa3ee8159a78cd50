package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cs2hub/backend/models"
	"github.com/lib/pq"
)

var (
	ErrBracketMatchNotFound = errors.New("bracket match not found")
	// ErrBracketMatchConflict возникает при конкурентной генерации:
	// уникальный индекс (tournament_id, round_number, match_number)
	// пропускает только один набор строк.
	ErrBracketMatchConflict = errors.New("bracket match already exists for this slot")
)

type BracketRepository interface {
	CreateMatch(ctx context.Context, exec SQLExecutor, match *models.BracketMatch) error
	ExistsForTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.BracketMatch, error)
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresBracketRepository) CreateMatch(ctx context.Context, exec SQLExecutor, m *models.BracketMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_brackets
			(tournament_id, round_number, match_number,
			 player1_steam_id, player2_steam_id, winner_steam_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		m.TournamentID,
		m.RoundNumber,
		m.MatchNumber,
		m.Player1SteamID,
		m.Player2SteamID,
		m.WinnerSteamID,
		m.Status,
	).Scan(&m.ID, &m.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrBracketMatchConflict
		}
		return fmt.Errorf("failed to create bracket match: %w", err)
	}
	return nil
}

func (r *postgresBracketRepository) ExistsForTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT EXISTS(SELECT 1 FROM tournament_brackets WHERE tournament_id = $1)`

	var exists bool
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check bracket existence for tournament %d: %w", tournamentID, err)
	}
	return exists, nil
}

func (r *postgresBracketRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.BracketMatch, error) {
	query := `
		SELECT
			tb.id, tb.tournament_id, tb.round_number, tb.match_number,
			tb.player1_steam_id, tb.player2_steam_id, tb.winner_steam_id,
			tb.player1_score, tb.player2_score, tb.status, tb.created_at,
			p1.persona_name AS player1_name,
			p1.avatar_url   AS player1_avatar,
			p2.persona_name AS player2_name,
			p2.avatar_url   AS player2_avatar
		FROM tournament_brackets tb
		LEFT JOIN tournament_registrations p1
			ON tb.player1_steam_id = p1.steam_id AND tb.tournament_id = p1.tournament_id
		LEFT JOIN tournament_registrations p2
			ON tb.player2_steam_id = p2.steam_id AND tb.tournament_id = p2.tournament_id
		WHERE tb.tournament_id = $1
		ORDER BY tb.round_number, tb.match_number`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bracket for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]models.BracketMatch, 0)
	for rows.Next() {
		var m models.BracketMatch
		if scanErr := rows.Scan(
			&m.ID, &m.TournamentID, &m.RoundNumber, &m.MatchNumber,
			&m.Player1SteamID, &m.Player2SteamID, &m.WinnerSteamID,
			&m.Player1Score, &m.Player2Score, &m.Status, &m.CreatedAt,
			&m.Player1Name, &m.Player1Avatar, &m.Player2Name, &m.Player2Avatar,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan bracket match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bracket rows iteration: %w", err)
	}
	return matches, nil
}
