package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cs2hub/backend/live"
	"github.com/cs2hub/backend/models"
	"github.com/cs2hub/backend/repositories"
	"github.com/cs2hub/backend/serverquery"
)

// QueryClient опрашивает один игровой сервер по произвольному адресу.
type QueryClient interface {
	Query(ctx context.Context, address string) (*serverquery.Info, error)
}

// ServerStatusService опрашивает активные игровые серверы и обновляет
// их живые поля. Недоступность одного сервера не влияет на остальные:
// такой сервер помечается offline, а опрос продолжается.
type ServerStatusService struct {
	servers repositories.ServerRepository
	client  QueryClient
	hub     *live.Hub
	logger  *slog.Logger

	// pollLimit ограничивает число одновременных UDP-опросов.
	pollLimit int

	now func() time.Time
}

func NewServerStatusService(
	servers repositories.ServerRepository,
	client QueryClient,
	hub *live.Hub,
	logger *slog.Logger,
	pollLimit int,
) *ServerStatusService {
	if pollLimit <= 0 {
		pollLimit = 8
	}
	return &ServerStatusService{
		servers:   servers,
		client:    client,
		hub:       hub,
		logger:    logger,
		pollLimit: pollLimit,
		now:       time.Now,
	}
}

// RefreshAll опрашивает все активные серверы и возвращает их свежее
// состояние в устойчивом порядке (order_position, id).
func (s *ServerStatusService) RefreshAll(ctx context.Context) ([]models.GameServer, error) {
	servers, err := s.servers.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pollLimit)

	for i := range servers {
		server := &servers[i]
		g.Go(func() error {
			s.refreshOne(gctx, server)
			return nil
		})
	}
	// Воркеры не возвращают ошибок: отказ сервера — не отказ опроса.
	_ = g.Wait()

	s.notifyServersUpdated(servers)
	return servers, nil
}

// RefreshOne опрашивает один активный сервер по идентификатору.
func (s *ServerStatusService) RefreshOne(ctx context.Context, id int) (*models.GameServer, error) {
	server, err := s.servers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, err
	}

	s.refreshOne(ctx, server)
	s.notifyServersUpdated([]models.GameServer{*server})
	return server, nil
}

// refreshOne опрашивает один сервер и записывает результат и в базу,
// и в переданную структуру.
func (s *ServerStatusService) refreshOne(ctx context.Context, server *models.GameServer) {
	address := fmt.Sprintf("%s:%d", server.IPAddress, server.Port)
	polledAt := s.now()

	info, err := s.client.Query(ctx, address)
	if err != nil {
		reason := "query failed"
		if serverquery.IsTimeout(err) {
			reason = "timeout"
		}
		s.logger.Warn("game server is unreachable",
			slog.Int("server_id", server.ID),
			slog.String("address", address),
			slog.String("reason", reason),
			slog.Any("error", err))

		server.Status = models.ServerOffline
		server.CurrentPlayers = 0
		server.UpdatedAt = polledAt
		if dbErr := s.servers.MarkOffline(ctx, server.ID, polledAt); dbErr != nil {
			s.logger.Error("failed to persist offline server status",
				slog.Int("server_id", server.ID), slog.Any("error", dbErr))
		}
		return
	}

	server.Status = models.ServerOnline
	server.CurrentPlayers = info.Players
	server.MaxPlayers = info.MaxPlayers
	mapName := info.Map
	server.Map = &mapName
	server.UpdatedAt = polledAt

	if dbErr := s.servers.MarkOnline(ctx, server.ID, info.Players, info.MaxPlayers, info.Map, polledAt); dbErr != nil {
		s.logger.Error("failed to persist online server status",
			slog.Int("server_id", server.ID), slog.Any("error", dbErr))
	}
}

func (s *ServerStatusService) notifyServersUpdated(servers []models.GameServer) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(live.ServersRoom, live.Message{
		Type:    live.EventServersUpdated,
		Payload: servers,
	})
}
