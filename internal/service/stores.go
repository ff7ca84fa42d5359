package service

import (
	"context"

	"league-tracker/internal/domain"
)

// Store interfaces are satisfied by the repository types; services depend on
// them so tests can substitute in-memory fakes.

type PlayerStore interface {
	Get(ctx context.Context, id string) (*domain.Player, error)
	List(ctx context.Context) ([]domain.Player, error)
	Create(ctx context.Context, p *domain.Player) error
	Update(ctx context.Context, p *domain.Player, appended []domain.RatingSnapshot) error
	SetAvailability(ctx context.Context, id string, available bool) error
	Delete(ctx context.Context, id string) error
}

type MatchStore interface {
	Insert(ctx context.Context, m *domain.Match) (int64, error)
	List(ctx context.Context) ([]domain.Match, error)
}

type SnapshotStore interface {
	ReplaceAll(ctx context.Context, players []domain.Player, matches []domain.Match) error
}
