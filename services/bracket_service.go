package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cs2hub/backend/brackets"
	"github.com/cs2hub/backend/live"
	"github.com/cs2hub/backend/repositories"
)

// BracketService отвечает за генерацию турнирной сетки.
type BracketService interface {
	// GenerateBracket строит сетку для турнира, если её ещё нет.
	// Возвращает true, если сетка существует после вызова (создана
	// сейчас или раньше), и false, если для генерации не хватило
	// подтверждённых участников.
	GenerateBracket(ctx context.Context, tournamentID int) (bool, error)
}

type bracketService struct {
	db            *sql.DB
	registrations repositories.RegistrationRepository
	matches       repositories.BracketRepository
	generator     brackets.Generator
	hub           *live.Hub
	logger        *slog.Logger

	// newRand подменяется в тестах для детерминированного посева.
	newRand func() *rand.Rand
}

func NewBracketService(
	db *sql.DB,
	registrations repositories.RegistrationRepository,
	matches repositories.BracketRepository,
	generator brackets.Generator,
	hub *live.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:            db,
		registrations: registrations,
		matches:       matches,
		generator:     generator,
		hub:           hub,
		logger:        logger,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for bracket generation: %w", err)
	}
	defer tx.Rollback()

	created, err := s.generateInTx(ctx, tx, tournamentID)
	if err != nil {
		if errors.Is(err, errBracketExists) {
			return true, nil
		}
		if errors.Is(err, repositories.ErrBracketMatchConflict) {
			// Конкурентная генерация успела вставить сетку первой;
			// наша транзакция откатывается, результат тот же.
			return true, nil
		}
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit bracket generation: %w", err)
	}

	if created {
		s.notifyBracketUpdated(ctx, tournamentID)
	}
	return created, nil
}

var errBracketExists = errors.New("bracket already generated")

// generateInTx выполняет генерацию внутри переданной транзакции.
func (s *bracketService) generateInTx(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (bool, error) {
	exists, err := s.matches.ExistsForTournament(ctx, exec, tournamentID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, errBracketExists
	}

	participants, err := s.registrations.ListConfirmed(ctx, exec, tournamentID)
	if err != nil {
		return false, err
	}
	if len(participants) < 2 {
		s.logger.Info("skipping bracket generation: not enough confirmed participants",
			slog.Int("tournament_id", tournamentID),
			slog.Int("confirmed", len(participants)))
		return false, nil
	}

	generated, err := s.generator.Generate(ctx, brackets.GenerateParams{
		TournamentID: tournamentID,
		Participants: participants,
		Rand:         s.newRand(),
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return false, nil
		}
		return false, err
	}

	for _, match := range generated {
		if createErr := s.matches.CreateMatch(ctx, exec, match); createErr != nil {
			return false, createErr
		}
	}

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", len(generated)),
		slog.String("generator", s.generator.Name()))

	return true, nil
}

func (s *bracketService) notifyBracketUpdated(ctx context.Context, tournamentID int) {
	if s.hub == nil {
		return
	}
	matches, err := s.matches.ListByTournament(ctx, tournamentID)
	if err != nil {
		s.logger.Error("failed to load bracket for broadcast",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToRoom(live.TournamentRoom(tournamentID), live.Message{
		Type:    live.EventBracketUpdated,
		Payload: matches,
	})
}
