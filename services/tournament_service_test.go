package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs2hub/backend/models"
	"github.com/cs2hub/backend/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type tournamentServiceFixture struct {
	service       *TournamentService
	tournaments   *fakeTournamentRepo
	registrations *fakeRegistrationRepo
	matches       *fakeBracketRepo
	bracket       *fakeBracketService
}

func newTournamentServiceFixture(t *testing.T) *tournamentServiceFixture {
	t.Helper()
	tournaments := newFakeTournamentRepo()
	registrations := newFakeRegistrationRepo()
	matches := newFakeBracketRepo()
	bracket := &fakeBracketService{}

	service := NewTournamentService(tournaments, registrations, matches, bracket, nil, discardLogger())
	return &tournamentServiceFixture{
		service:       service,
		tournaments:   tournaments,
		registrations: registrations,
		matches:       matches,
		bracket:       bracket,
	}
}

func (f *tournamentServiceFixture) createTournament(t *testing.T, startIn time.Duration, maxParticipants int) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		Name:            "Summer Cup",
		MaxParticipants: maxParticipants,
		TournamentType:  models.TypeSolo,
		Game:            "cs2",
		StartDate:       time.Now().Add(startIn),
	}
	require.NoError(t, f.service.CreateTournament(context.Background(), tournament))
	return tournament
}

func TestCreateTournamentValidation(t *testing.T) {
	f := newTournamentServiceFixture(t)
	start := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name       string
		tournament models.Tournament
		wantErr    error
	}{
		{
			name:       "missing name",
			tournament: models.Tournament{MaxParticipants: 8, TournamentType: models.TypeSolo, StartDate: start},
			wantErr:    ErrTournamentNameRequired,
		},
		{
			name:       "capacity below minimum",
			tournament: models.Tournament{Name: "Cup", MaxParticipants: 1, TournamentType: models.TypeSolo, StartDate: start},
			wantErr:    ErrTournamentInvalidCapacity,
		},
		{
			name:       "unknown type",
			tournament: models.Tournament{Name: "Cup", MaxParticipants: 8, TournamentType: "duo", StartDate: start},
			wantErr:    ErrTournamentInvalidType,
		},
		{
			name:       "missing start date",
			tournament: models.Tournament{Name: "Cup", MaxParticipants: 8, TournamentType: models.TypeSolo},
			wantErr:    ErrTournamentStartDateRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.CreateTournament(context.Background(), &tt.tournament)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateTournamentDefaultsToUpcoming(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 24*time.Hour, 8)
	assert.Equal(t, models.StatusUpcoming, tournament.Status)
	assert.NotZero(t, tournament.ID)
}

func TestRegisterHappyPath(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	reg, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, reg.TournamentID)
	assert.Equal(t, "76561198000000001", reg.SteamID)
	assert.Nil(t, reg.ConfirmedAt)
}

func TestRegisterTournamentNotFound(t *testing.T) {
	f := newTournamentServiceFixture(t)
	_, err := f.service.Register(context.Background(), 42, "76561198000000001", "player_one", nil)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	_, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	assert.ErrorIs(t, err, ErrRegistrationConflict)
}

func TestRegisterWindowClosed(t *testing.T) {
	f := newTournamentServiceFixture(t)
	// Старт через 30 минут: окно закрылось полчаса назад.
	tournament := f.createTournament(t, 30*time.Minute, 8)

	_, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterWindowBoundary(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 2*time.Hour, 8)

	// Ровно в момент закрытия окна регистрация уже отклоняется.
	f.service.now = func() time.Time { return tournament.RegistrationCloses() }
	_, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	// За секунду до закрытия — ещё проходит.
	f.service.now = func() time.Time { return tournament.RegistrationCloses().Add(-time.Second) }
	_, err = f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	assert.NoError(t, err)
}

func TestRegisterTournamentFull(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 2)

	_, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	require.NoError(t, err)
	_, err = f.service.Register(context.Background(), tournament.ID, "76561198000000002", "player_two", nil)
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), tournament.ID, "76561198000000003", "player_three", nil)
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestRegisterDuplicateCheckedBeforeWindow(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	_, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	require.NoError(t, err)

	// Окно уже закрыто, но повторная заявка должна вернуть конфликт,
	// а не ошибку закрытого окна.
	f.service.now = func() time.Time { return tournament.StartDate.Add(-10 * time.Minute) }
	_, err = f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	assert.ErrorIs(t, err, ErrRegistrationConflict)
}

func TestConfirmParticipation(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	_, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	require.NoError(t, err)

	require.NoError(t, f.service.ConfirmParticipation(context.Background(), tournament.ID, "76561198000000001"))

	reg, err := f.registrations.Get(context.Background(), tournament.ID, "76561198000000001")
	require.NoError(t, err)
	require.NotNil(t, reg.ConfirmedAt)
	assert.True(t, reg.Confirmed())
}

func TestConfirmParticipationNotFound(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	err := f.service.ConfirmParticipation(context.Background(), tournament.ID, "76561198999999999")
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestWithdraw(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	_, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	require.NoError(t, err)

	require.NoError(t, f.service.Withdraw(context.Background(), tournament.ID, "76561198000000001"))

	err = f.service.Withdraw(context.Background(), tournament.ID, "76561198000000001")
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestGetTournamentDetailsAutoStart(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	// Время старта наступило.
	f.service.now = func() time.Time { return tournament.StartDate.Add(time.Minute) }

	details, err := f.service.GetTournamentDetails(context.Background(), tournament.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, details.Status)
	assert.Equal(t, 1, f.bracket.callCount())

	// Повторный запрос не запускает турнир второй раз.
	details, err = f.service.GetTournamentDetails(context.Background(), tournament.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, details.Status)
	assert.Equal(t, 1, f.bracket.callCount())
}

func TestGetTournamentDetailsBeforeStart(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	details, err := f.service.GetTournamentDetails(context.Background(), tournament.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, details.Status)
	assert.Nil(t, details.Bracket)
	assert.Zero(t, f.bracket.callCount())
}

func TestGetTournamentDetailsViewerRegistration(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	_, err := f.service.Register(context.Background(), tournament.ID, "76561198000000001", "player_one", nil)
	require.NoError(t, err)

	viewer := "76561198000000001"
	details, err := f.service.GetTournamentDetails(context.Background(), tournament.ID, &viewer)
	require.NoError(t, err)
	require.NotNil(t, details.IsRegistered)
	assert.True(t, *details.IsRegistered)

	stranger := "76561198000000002"
	details, err = f.service.GetTournamentDetails(context.Background(), tournament.ID, &stranger)
	require.NoError(t, err)
	require.NotNil(t, details.IsRegistered)
	assert.False(t, *details.IsRegistered)
}

func TestUpdateStatusTriggersBracketGeneration(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	require.NoError(t, f.service.UpdateStatus(context.Background(), tournament.ID, models.StatusOngoing))
	assert.Equal(t, 1, f.bracket.callCount())

	updated, err := f.tournaments.GetByID(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, updated.Status)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	require.NoError(t, f.service.UpdateStatus(context.Background(), tournament.ID, models.StatusCompleted))

	err := f.service.UpdateStatus(context.Background(), tournament.ID, models.StatusOngoing)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	require.NoError(t, f.service.UpdateStatus(context.Background(), tournament.ID, models.StatusUpcoming))
	assert.Zero(t, f.bracket.callCount())
}

func TestAutoStartDueTournaments(t *testing.T) {
	f := newTournamentServiceFixture(t)
	due1 := f.createTournament(t, -time.Hour, 8)
	due2 := f.createTournament(t, -time.Minute, 8)
	future := f.createTournament(t, 3*time.Hour, 8)

	require.NoError(t, f.service.AutoStartDueTournaments(context.Background()))

	for _, id := range []int{due1.ID, due2.ID} {
		updated, err := f.tournaments.GetByID(context.Background(), nil, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOngoing, updated.Status)
	}

	untouched, err := f.tournaments.GetByID(context.Background(), nil, future.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, untouched.Status)
	assert.Equal(t, 2, f.bracket.callCount())
}

func TestDeleteTournamentNotFound(t *testing.T) {
	f := newTournamentServiceFixture(t)
	err := f.service.DeleteTournament(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestUploadLogoWithoutUploader(t *testing.T) {
	f := newTournamentServiceFixture(t)
	tournament := f.createTournament(t, 3*time.Hour, 8)

	_, err := f.service.UploadLogo(context.Background(), tournament.ID, "image/png", nil)
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestListTournamentsFilterByStatus(t *testing.T) {
	f := newTournamentServiceFixture(t)
	f.createTournament(t, 2*time.Hour, 8)
	f.createTournament(t, 4*time.Hour, 8)

	completed := f.createTournament(t, 6*time.Hour, 8)
	require.NoError(t, f.service.UpdateStatus(context.Background(), completed.ID, models.StatusCompleted))

	upcoming := models.StatusUpcoming
	list, err := f.service.ListTournaments(context.Background(), repositories.ListTournamentsFilter{Status: &upcoming})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
