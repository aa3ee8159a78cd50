package brackets

import (
	"context"
	"errors"

	"github.com/cs2hub/backend/models"
)

// SingleEliminationGenerator строит первый раунд сетки на выбывание:
// равномерно случайный посев, пары соседей, bye для нечётного хвоста.
type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.BracketMatch, error) {
	if params.Rand == nil {
		return nil, errors.New("bracket generation requires a random source")
	}

	participants := params.Participants
	n := len(participants)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}

	seeded := make([]*models.Registration, n)
	copy(seeded, participants)
	params.Rand.Shuffle(n, func(i, j int) {
		seeded[i], seeded[j] = seeded[j], seeded[i]
	})

	matches := make([]*models.BracketMatch, 0, n/2+n%2)
	matchNumber := 0

	for i := 0; i+1 < n; i += 2 {
		p2 := seeded[i+1].SteamID
		matches = append(matches, &models.BracketMatch{
			TournamentID:   params.TournamentID,
			RoundNumber:    1,
			MatchNumber:    matchNumber,
			Player1SteamID: seeded[i].SteamID,
			Player2SteamID: &p2,
			Status:         models.MatchStatusPending,
		})
		matchNumber++
	}

	// Непарный участник проходит дальше автоматически: матч сразу
	// завершён, победитель — он сам.
	if n%2 == 1 {
		last := seeded[n-1].SteamID
		matches = append(matches, &models.BracketMatch{
			TournamentID:   params.TournamentID,
			RoundNumber:    1,
			MatchNumber:    matchNumber,
			Player1SteamID: last,
			WinnerSteamID:  &last,
			Status:         models.MatchStatusCompleted,
		})
	}

	return matches, nil
}
