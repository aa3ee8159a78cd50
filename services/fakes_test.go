package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cs2hub/backend/models"
	"github.com/cs2hub/backend/repositories"
	"github.com/cs2hub/backend/serverquery"
)

// In-memory фейки репозиториев для юнит-тестов сервисов.

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CreatedAt = existing.CreatedAt
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) ListDueForStart(_ context.Context, _ repositories.SQLExecutor, currentTime time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.Tournament
	for _, t := range r.tournaments {
		if t.Status == models.StatusUpcoming && !t.StartDate.After(currentTime) {
			copied := *t
			due = append(due, &copied)
		}
	}
	return due, nil
}

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	regs   map[int]map[string]*models.Registration // tournamentID → steamID
	nextID int
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{regs: make(map[int]map[string]*models.Registration), nextID: 1}
}

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byTournament, ok := r.regs[reg.TournamentID]
	if !ok {
		byTournament = make(map[string]*models.Registration)
		r.regs[reg.TournamentID] = byTournament
	}
	if _, exists := byTournament[reg.SteamID]; exists {
		return repositories.ErrRegistrationConflict
	}
	reg.ID = r.nextID
	r.nextID++
	reg.RegisteredAt = time.Now()
	copied := *reg
	byTournament[reg.SteamID] = &copied
	return nil
}

func (r *fakeRegistrationRepo) Get(_ context.Context, tournamentID int, steamID string) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[tournamentID][steamID]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegistrationRepo) Confirm(_ context.Context, tournamentID int, steamID string, confirmedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[tournamentID][steamID]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.ConfirmedAt = &confirmedAt
	return nil
}

func (r *fakeRegistrationRepo) Delete(_ context.Context, tournamentID int, steamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[tournamentID][steamID]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(r.regs[tournamentID], steamID)
	return nil
}

func (r *fakeRegistrationRepo) CountByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regs[tournamentID]), nil
}

func (r *fakeRegistrationRepo) ListConfirmed(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	confirmed := make([]*models.Registration, 0)
	for _, reg := range r.regs[tournamentID] {
		if reg.ConfirmedAt != nil {
			copied := *reg
			confirmed = append(confirmed, &copied)
		}
	}
	sort.Slice(confirmed, func(i, j int) bool {
		if confirmed[i].ConfirmedAt.Equal(*confirmed[j].ConfirmedAt) {
			return confirmed[i].ID < confirmed[j].ID
		}
		return confirmed[i].ConfirmedAt.Before(*confirmed[j].ConfirmedAt)
	})
	return confirmed, nil
}

func (r *fakeRegistrationRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs := make([]models.Registration, 0)
	for _, reg := range r.regs[tournamentID] {
		regs = append(regs, *reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].ID < regs[j].ID })
	return regs, nil
}

type fakeBracketRepo struct {
	mu      sync.Mutex
	matches map[int][]models.BracketMatch // tournamentID → matches
	nextID  int

	// failNextCreateWithConflict имитирует конкурентную генерацию:
	// следующая вставка упирается в уникальный индекс.
	failNextCreateWithConflict bool
}

func newFakeBracketRepo() *fakeBracketRepo {
	return &fakeBracketRepo{matches: make(map[int][]models.BracketMatch), nextID: 1}
}

func (r *fakeBracketRepo) CreateMatch(_ context.Context, _ repositories.SQLExecutor, m *models.BracketMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextCreateWithConflict {
		r.failNextCreateWithConflict = false
		return repositories.ErrBracketMatchConflict
	}
	m.ID = r.nextID
	r.nextID++
	m.CreatedAt = time.Now()
	r.matches[m.TournamentID] = append(r.matches[m.TournamentID], *m)
	return nil
}

func (r *fakeBracketRepo) ExistsForTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches[tournamentID]) > 0, nil
}

func (r *fakeBracketRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.BracketMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.BracketMatch(nil), r.matches[tournamentID]...), nil
}

// fakeBracketService считает вызовы генерации вместо настоящей работы.
type fakeBracketService struct {
	mu    sync.Mutex
	calls []int
}

func (s *fakeBracketService) GenerateBracket(_ context.Context, tournamentID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, tournamentID)
	return true, nil
}

func (s *fakeBracketService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeServerRepo struct {
	mu      sync.Mutex
	servers map[int]*models.GameServer
	nextID  int
}

func newFakeServerRepo() *fakeServerRepo {
	return &fakeServerRepo{servers: make(map[int]*models.GameServer), nextID: 1}
}

func (r *fakeServerRepo) ListActive(_ context.Context) ([]models.GameServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := make([]models.GameServer, 0)
	for _, s := range r.servers {
		if s.IsActive {
			active = append(active, *s)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].OrderPosition == active[j].OrderPosition {
			return active[i].ID < active[j].ID
		}
		return active[i].OrderPosition < active[j].OrderPosition
	})
	return active, nil
}

func (r *fakeServerRepo) GetByID(_ context.Context, id int) (*models.GameServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok || !s.IsActive {
		return nil, repositories.ErrServerNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeServerRepo) Create(_ context.Context, s *models.GameServer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	s.IsActive = true
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	copied := *s
	r.servers[s.ID] = &copied
	return nil
}

func (r *fakeServerRepo) Update(_ context.Context, s *models.GameServer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.servers[s.ID]
	if !ok || !existing.IsActive {
		return repositories.ErrServerNotFound
	}
	existing.Name = s.Name
	existing.IPAddress = s.IPAddress
	existing.Port = s.Port
	existing.GameType = s.GameType
	existing.MaxPlayers = s.MaxPlayers
	existing.Description = s.Description
	existing.OrderPosition = s.OrderPosition
	return nil
}

func (r *fakeServerRepo) MarkOnline(_ context.Context, id int, currentPlayers, maxPlayers int, mapName string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return repositories.ErrServerNotFound
	}
	s.Status = models.ServerOnline
	s.CurrentPlayers = currentPlayers
	s.MaxPlayers = maxPlayers
	s.Map = &mapName
	s.UpdatedAt = updatedAt
	return nil
}

func (r *fakeServerRepo) MarkOffline(_ context.Context, id int, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return repositories.ErrServerNotFound
	}
	s.Status = models.ServerOffline
	s.CurrentPlayers = 0
	s.UpdatedAt = updatedAt
	return nil
}

func (r *fakeServerRepo) Deactivate(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok || !s.IsActive {
		return repositories.ErrServerNotFound
	}
	s.IsActive = false
	return nil
}

// fakeQueryClient возвращает заранее заданные ответы по адресам.
type fakeQueryClient struct {
	mu        sync.Mutex
	responses map[string]*serverquery.Info
	errs      map[string]error
	queried   []string
}

func newFakeQueryClient() *fakeQueryClient {
	return &fakeQueryClient{
		responses: make(map[string]*serverquery.Info),
		errs:      make(map[string]error),
	}
}

func (c *fakeQueryClient) Query(_ context.Context, address string) (*serverquery.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queried = append(c.queried, address)
	if err, ok := c.errs[address]; ok {
		return nil, err
	}
	if info, ok := c.responses[address]; ok {
		copied := *info
		return &copied, nil
	}
	return nil, context.DeadlineExceeded
}
