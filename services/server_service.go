package services

import (
	"context"
	"errors"

	"github.com/cs2hub/backend/models"
	"github.com/cs2hub/backend/repositories"
)

// ServerService — CRUD игровых серверов для админки.
// Удаление мягкое: сервер помечается неактивным и пропадает
// из списков и из цикла опроса.
type ServerService struct {
	servers repositories.ServerRepository
}

func NewServerService(servers repositories.ServerRepository) *ServerService {
	return &ServerService{servers: servers}
}

func (s *ServerService) ListServers(ctx context.Context) ([]models.GameServer, error) {
	return s.servers.ListActive(ctx)
}

func (s *ServerService) GetServer(ctx context.Context, id int) (*models.GameServer, error) {
	server, err := s.servers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, err
	}
	return server, nil
}

func (s *ServerService) CreateServer(ctx context.Context, server *models.GameServer) error {
	if err := validateServer(server); err != nil {
		return err
	}
	if server.Status == "" {
		server.Status = models.ServerOffline
	}
	return s.servers.Create(ctx, server)
}

func (s *ServerService) UpdateServer(ctx context.Context, id int, server *models.GameServer) error {
	if err := validateServer(server); err != nil {
		return err
	}
	server.ID = id
	if err := s.servers.Update(ctx, server); err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return ErrServerNotFound
		}
		return err
	}
	return nil
}

func (s *ServerService) DeleteServer(ctx context.Context, id int) error {
	if err := s.servers.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return ErrServerNotFound
		}
		return err
	}
	return nil
}

func validateServer(server *models.GameServer) error {
	if server.Name == "" {
		return ErrServerNameRequired
	}
	if server.IPAddress == "" || server.Port <= 0 || server.Port > 65535 {
		return ErrServerAddressRequired
	}
	return nil
}
