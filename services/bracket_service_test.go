package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs2hub/backend/brackets"
	"github.com/cs2hub/backend/models"
	"github.com/cs2hub/backend/repositories"
)

func newBracketServiceForTest(registrations *fakeRegistrationRepo, matches *fakeBracketRepo) *bracketService {
	return &bracketService{
		registrations: registrations,
		matches:       matches,
		generator:     brackets.NewSingleEliminationGenerator(),
		logger:        discardLogger(),
		newRand:       func() *rand.Rand { return rand.New(rand.NewSource(1)) },
	}
}

func confirmRegistrations(t *testing.T, repo *fakeRegistrationRepo, tournamentID, count int) {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		reg := &models.Registration{
			TournamentID: tournamentID,
			SteamID:      fmt.Sprintf("76561198%09d", i+1),
			PersonaName:  "player",
		}
		require.NoError(t, repo.Create(context.Background(), reg))
		require.NoError(t, repo.Confirm(context.Background(), tournamentID, reg.SteamID, base.Add(time.Duration(i)*time.Minute)))
	}
}

func TestGenerateInTxCreatesFirstRound(t *testing.T) {
	registrations := newFakeRegistrationRepo()
	matches := newFakeBracketRepo()
	s := newBracketServiceForTest(registrations, matches)

	confirmRegistrations(t, registrations, 1, 6)

	created, err := s.generateInTx(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.True(t, created)

	saved, err := matches.ListByTournament(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, saved, 3)
	for _, m := range saved {
		assert.Equal(t, 1, m.RoundNumber)
		assert.Equal(t, models.MatchStatusPending, m.Status)
	}
}

func TestGenerateInTxOddParticipantGetsBye(t *testing.T) {
	registrations := newFakeRegistrationRepo()
	matches := newFakeBracketRepo()
	s := newBracketServiceForTest(registrations, matches)

	confirmRegistrations(t, registrations, 1, 5)

	created, err := s.generateInTx(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.True(t, created)

	saved, err := matches.ListByTournament(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, saved, 3)

	byes := 0
	for _, m := range saved {
		if m.IsBye() {
			byes++
			assert.Equal(t, models.MatchStatusCompleted, m.Status)
			require.NotNil(t, m.WinnerSteamID)
			assert.Equal(t, m.Player1SteamID, *m.WinnerSteamID)
		}
	}
	assert.Equal(t, 1, byes)
}

func TestGenerateInTxSkipsWhenBracketExists(t *testing.T) {
	registrations := newFakeRegistrationRepo()
	matches := newFakeBracketRepo()
	s := newBracketServiceForTest(registrations, matches)

	confirmRegistrations(t, registrations, 1, 4)

	created, err := s.generateInTx(context.Background(), nil, 1)
	require.NoError(t, err)
	require.True(t, created)

	_, err = s.generateInTx(context.Background(), nil, 1)
	assert.ErrorIs(t, err, errBracketExists)

	saved, err := matches.ListByTournament(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestGenerateInTxNotEnoughConfirmed(t *testing.T) {
	registrations := newFakeRegistrationRepo()
	matches := newFakeBracketRepo()
	s := newBracketServiceForTest(registrations, matches)

	// Две заявки, но подтверждена только одна.
	reg1 := &models.Registration{TournamentID: 1, SteamID: "76561198000000001", PersonaName: "a"}
	reg2 := &models.Registration{TournamentID: 1, SteamID: "76561198000000002", PersonaName: "b"}
	require.NoError(t, registrations.Create(context.Background(), reg1))
	require.NoError(t, registrations.Create(context.Background(), reg2))
	require.NoError(t, registrations.Confirm(context.Background(), 1, reg1.SteamID, time.Now()))

	created, err := s.generateInTx(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.False(t, created)

	saved, err := matches.ListByTournament(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestGenerateInTxConcurrentConflictPropagates(t *testing.T) {
	registrations := newFakeRegistrationRepo()
	matches := newFakeBracketRepo()
	s := newBracketServiceForTest(registrations, matches)

	confirmRegistrations(t, registrations, 1, 4)
	matches.failNextCreateWithConflict = true

	_, err := s.generateInTx(context.Background(), nil, 1)
	assert.ErrorIs(t, err, repositories.ErrBracketMatchConflict)
}

func TestGenerateInTxDeterministicSeeding(t *testing.T) {
	run := func() []string {
		registrations := newFakeRegistrationRepo()
		matches := newFakeBracketRepo()
		s := newBracketServiceForTest(registrations, matches)
		confirmRegistrations(t, registrations, 1, 8)

		_, err := s.generateInTx(context.Background(), nil, 1)
		require.NoError(t, err)

		saved, err := matches.ListByTournament(context.Background(), 1)
		require.NoError(t, err)

		var order []string
		for _, m := range saved {
			order = append(order, m.Player1SteamID, *m.Player2SteamID)
		}
		return order
	}

	assert.Equal(t, run(), run())
}
