package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cs2hub/backend/models"
	"github.com/cs2hub/backend/repositories"
	"github.com/cs2hub/backend/storage"
)

// TournamentService инкапсулирует бизнес-логику турниров:
// жизненный цикл, регистрации участников и загрузку логотипов.
type TournamentService struct {
	tournaments   repositories.TournamentRepository
	registrations repositories.RegistrationRepository
	matches       repositories.BracketRepository
	bracket       BracketService
	uploader      storage.FileUploader
	logger        *slog.Logger

	// now подменяется в тестах для контроля окна регистрации
	// и автоперехода статусов.
	now func() time.Time
}

func NewTournamentService(
	tournaments repositories.TournamentRepository,
	registrations repositories.RegistrationRepository,
	matches repositories.BracketRepository,
	bracket BracketService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		tournaments:   tournaments,
		registrations: registrations,
		matches:       matches,
		bracket:       bracket,
		uploader:      uploader,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *TournamentService) CreateTournament(ctx context.Context, t *models.Tournament) error {
	if err := validateTournament(t); err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = models.StatusUpcoming
	}
	return s.tournaments.Create(ctx, t)
}

func (s *TournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournaments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.fillLogoURL(&tournaments[i])
	}
	return tournaments, nil
}

// GetTournamentDetails возвращает турнир с участниками и, для начатых
// турниров, с сеткой. Если время старта уже наступило, турнир
// переводится в ongoing и для него генерируется сетка.
func (s *TournamentService) GetTournamentDetails(ctx context.Context, id int, viewerSteamID *string) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if t.Status == models.StatusUpcoming && !s.now().Before(t.StartDate) {
		if err := s.startTournament(ctx, t); err != nil {
			return nil, err
		}
	}

	participants, err := s.registrations.ListByTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Participants = participants

	if t.Status != models.StatusUpcoming {
		bracket, err := s.matches.ListByTournament(ctx, id)
		if err != nil {
			return nil, err
		}
		t.Bracket = bracket
	}

	if viewerSteamID != nil {
		registered := false
		for _, p := range participants {
			if p.SteamID == *viewerSteamID {
				registered = true
				break
			}
		}
		t.IsRegistered = &registered
	}

	s.fillLogoURL(t)
	return t, nil
}

func (s *TournamentService) UpdateTournament(ctx context.Context, id int, t *models.Tournament) error {
	if err := validateTournament(t); err != nil {
		return err
	}
	t.ID = id
	if err := s.tournaments.Update(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

// UpdateStatus переводит турнир в новый статус. Перевод в ongoing
// запускает генерацию сетки.
func (s *TournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	if !isValidStatus(status) {
		return ErrTournamentInvalidStatus
	}

	t, err := s.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if t.Status == status {
		return nil
	}
	if !isValidStatusTransition(t.Status, status) {
		return ErrTournamentInvalidStatusTransition
	}

	if err := s.tournaments.UpdateStatus(ctx, nil, id, status); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if status == models.StatusOngoing {
		if _, err := s.bracket.GenerateBracket(ctx, id); err != nil {
			s.logger.Error("bracket generation failed after status change",
				slog.Int("tournament_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *TournamentService) DeleteTournament(ctx context.Context, id int) error {
	t, err := s.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if err := s.tournaments.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if s.uploader != nil && t.LogoKey != nil {
		if delErr := s.uploader.Delete(ctx, *t.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete tournament logo from storage",
				slog.Int("tournament_id", id), slog.Any("error", delErr))
		}
	}
	return nil
}

// UploadLogo сохраняет логотип турнира в объектное хранилище и
// запоминает ключ объекта. Возвращает публичный URL.
func (s *TournamentService) UploadLogo(ctx context.Context, id int, contentType string, reader io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}

	if _, err := s.tournaments.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return "", ErrTournamentNotFound
		}
		return "", err
	}

	ext := extensionForContentType(contentType)
	key := fmt.Sprintf("tournaments/%d/logo%s", id, ext)

	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	if err := s.tournaments.UpdateLogoKey(ctx, id, &result.Key); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return "", ErrTournamentNotFound
		}
		return "", err
	}
	return result.Location, nil
}

// Register создаёт заявку игрока на участие в турнире.
// Порядок проверок: существование турнира, повторная заявка,
// окно регистрации, свободные места.
func (s *TournamentService) Register(ctx context.Context, tournamentID int, steamID, personaName string, avatarURL *string) (*models.Registration, error) {
	t, err := s.tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if _, err := s.registrations.Get(ctx, tournamentID, steamID); err == nil {
		return nil, ErrRegistrationConflict
	} else if !errors.Is(err, repositories.ErrRegistrationNotFound) {
		return nil, err
	}

	if !s.now().Before(t.RegistrationCloses()) {
		return nil, ErrRegistrationClosed
	}

	count, err := s.registrations.CountByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if count >= t.MaxParticipants {
		return nil, ErrTournamentFull
	}

	reg := &models.Registration{
		TournamentID: tournamentID,
		SteamID:      steamID,
		PersonaName:  personaName,
		AvatarURL:    avatarURL,
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrRegistrationTournamentInvalid):
			return nil, ErrTournamentNotFound
		default:
			return nil, err
		}
	}
	return reg, nil
}

// ConfirmParticipation помечает заявку подтверждённой. Повторное
// подтверждение обновляет отметку времени и не считается ошибкой.
func (s *TournamentService) ConfirmParticipation(ctx context.Context, tournamentID int, steamID string) error {
	if err := s.registrations.Confirm(ctx, tournamentID, steamID, s.now()); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}
	return nil
}

func (s *TournamentService) Withdraw(ctx context.Context, tournamentID int, steamID string) error {
	if err := s.registrations.Delete(ctx, tournamentID, steamID); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}
	return nil
}

// AutoStartDueTournaments переводит в ongoing все турниры, чьё время
// старта наступило, и генерирует для них сетки. Вызывается планировщиком.
func (s *TournamentService) AutoStartDueTournaments(ctx context.Context) error {
	due, err := s.tournaments.ListDueForStart(ctx, nil, s.now())
	if err != nil {
		return err
	}

	for _, t := range due {
		if err := s.startTournament(ctx, t); err != nil {
			s.logger.Error("failed to auto-start tournament",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
		}
	}
	return nil
}

// startTournament переводит турнир в ongoing и запускает генерацию
// сетки. Ошибка генерации не откатывает смену статуса.
func (s *TournamentService) startTournament(ctx context.Context, t *models.Tournament) error {
	if err := s.tournaments.UpdateStatus(ctx, nil, t.ID, models.StatusOngoing); err != nil {
		return err
	}
	t.Status = models.StatusOngoing

	s.logger.Info("tournament started", slog.Int("tournament_id", t.ID), slog.String("name", t.Name))

	if _, err := s.bracket.GenerateBracket(ctx, t.ID); err != nil {
		s.logger.Error("bracket generation failed on tournament start",
			slog.Int("tournament_id", t.ID), slog.Any("error", err))
	}
	return nil
}

func (s *TournamentService) fillLogoURL(t *models.Tournament) {
	if s.uploader == nil || t.LogoKey == nil {
		return
	}
	url := s.uploader.PublicURL(*t.LogoKey)
	t.LogoURL = &url
}

func validateTournament(t *models.Tournament) error {
	if t.Name == "" {
		return ErrTournamentNameRequired
	}
	if t.MaxParticipants < 2 {
		return ErrTournamentInvalidCapacity
	}
	switch t.TournamentType {
	case models.TypeSolo, models.TypeTeam:
	default:
		return ErrTournamentInvalidType
	}
	if t.StartDate.IsZero() {
		return ErrTournamentStartDateRequired
	}
	if t.Status != "" && !isValidStatus(t.Status) {
		return ErrTournamentInvalidStatus
	}
	return nil
}

func isValidStatus(status models.TournamentStatus) bool {
	switch status {
	case models.StatusUpcoming, models.StatusOngoing, models.StatusCompleted:
		return true
	}
	return false
}

// isValidStatusTransition: upcoming → ongoing → completed, без возврата.
func isValidStatusTransition(from, to models.TournamentStatus) bool {
	switch from {
	case models.StatusUpcoming:
		return to == models.StatusOngoing || to == models.StatusCompleted
	case models.StatusOngoing:
		return to == models.StatusCompleted
	}
	return false
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
