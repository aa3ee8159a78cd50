package brackets

import (
	"context"
	"errors"
	"math/rand"

	"github.com/cs2hub/backend/models"
)

// ErrNotEnoughParticipants сигнализирует, что сетку строить не из чего.
// Это не системная ошибка: вызывающий превращает её в "сетка не создана".
var ErrNotEnoughParticipants = errors.New("not enough confirmed participants to generate a bracket (minimum 2)")

type GenerateParams struct {
	TournamentID int
	// Participants — подтверждённые заявки в порядке подтверждения.
	Participants []*models.Registration
	// Rand — источник случайности для посева. Инъекция позволяет
	// детерминированные тесты; nil недопустим.
	Rand *rand.Rand
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*models.BracketMatch, error)

	Name() string
}
