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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	// SteamID, если задан, добавляет к каждой строке флаг is_registered
	// и confirmed_at для этого игрока.
	SteamID *string
	Limit   int
	Offset  int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateLogoKey(ctx context.Context, tournamentID int, logoKey *string) error
	Delete(ctx context.Context, id int) error
	ListDueForStart(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, description, prize_pool, max_participants,
			tournament_type, game, start_date, status, logo_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.PrizePool, t.MaxParticipants,
		t.TournamentType, t.Game, t.StartDate, t.Status, t.LogoKey,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT
			t.id, t.name, t.description, t.prize_pool, t.max_participants,
			t.tournament_type, t.game, t.start_date, t.status, t.created_at, t.logo_key,
			COUNT(tr.id) AS participants_count
		FROM tournaments t
		LEFT JOIN tournament_registrations tr ON t.id = tr.tournament_id
		WHERE t.id = $1
		GROUP BY t.id`

	t := &models.Tournament{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.PrizePool, &t.MaxParticipants,
		&t.TournamentType, &t.Game, &t.StartDate, &t.Status, &t.CreatedAt, &t.LogoKey,
		&t.ParticipantsCount,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `
		SELECT
			t.id, t.name, t.description, t.prize_pool, t.max_participants,
			t.tournament_type, t.game, t.start_date, t.status, t.created_at, t.logo_key,
			COUNT(tr.id) AS participants_count`

	args := []interface{}{}
	argID := 1

	withRegistration := filter.SteamID != nil
	if withRegistration {
		query += fmt.Sprintf(`,
			EXISTS(
				SELECT 1 FROM tournament_registrations
				WHERE tournament_id = t.id AND steam_id = $%d
			) AS is_registered`, argID)
		args = append(args, *filter.SteamID)
		argID++
	}

	query += `
		FROM tournaments t
		LEFT JOIN tournament_registrations tr ON t.id = tr.tournament_id
		WHERE 1=1`

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " GROUP BY t.id ORDER BY t.start_date"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		dest := []interface{}{
			&t.ID, &t.Name, &t.Description, &t.PrizePool, &t.MaxParticipants,
			&t.TournamentType, &t.Game, &t.StartDate, &t.Status, &t.CreatedAt, &t.LogoKey,
			&t.ParticipantsCount,
		}
		if withRegistration {
			var registered bool
			dest = append(dest, &registered)
			if scanErr := rows.Scan(dest...); scanErr != nil {
				return nil, scanErr
			}
			t.IsRegistered = &registered
		} else {
			if scanErr := rows.Scan(dest...); scanErr != nil {
				return nil, scanErr
			}
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			description = $2,
			prize_pool = $3,
			max_participants = $4,
			tournament_type = $5,
			game = $6,
			start_date = $7,
			status = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.PrizePool, t.MaxParticipants,
		t.TournamentType, t.Game, t.StartDate, t.Status,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}

	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateLogoKey(ctx context.Context, tournamentID int, logoKey *string) error {
	query := `UPDATE tournaments SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update tournament logo key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// Delete удаляет турнир. Регистрации и сетка удаляются каскадно
// по внешним ключам.
func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListDueForStart возвращает турниры со статусом upcoming, чьё время
// старта уже наступило. Используется планировщиком автозапуска.
func (r *postgresTournamentRepository) ListDueForStart(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT
			id, name, description, prize_pool, max_participants,
			tournament_type, game, start_date, status, created_at, logo_key
		FROM tournaments
		WHERE status = $1 AND start_date <= $2`

	rows, err := executor.QueryContext(ctx, query, models.StatusUpcoming, currentTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments due for start: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.PrizePool, &t.MaxParticipants,
			&t.TournamentType, &t.Game, &t.StartDate, &t.Status, &t.CreatedAt, &t.LogoKey,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament due for start: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "tournaments_name_key" {
			return ErrTournamentNameConflict
		}
	}
	return err
}
