package service_test

import (
	"context"
	"fmt"
	"sync"

	"league-tracker/internal/domain"
)

// In-memory stores standing in for the sqlite repositories.

type fakePlayerStore struct {
	mu      sync.Mutex
	players []domain.Player
}

func (f *fakePlayerStore) Get(_ context.Context, id string) (*domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
}

func (f *fakePlayerStore) List(context.Context) ([]domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Player, len(f.players))
	copy(out, f.players)
	return out, nil
}

func (f *fakePlayerStore) Create(_ context.Context, p *domain.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players = append(f.players, *p)
	return nil
}

func (f *fakePlayerStore) Update(_ context.Context, p *domain.Player, _ []domain.RatingSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.players {
		if f.players[i].ID == p.ID {
			f.players[i] = *p
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, p.ID)
}

func (f *fakePlayerStore) SetAvailability(_ context.Context, id string, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.players {
		if f.players[i].ID == id {
			f.players[i].Available = available
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
}

func (f *fakePlayerStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.players {
		if f.players[i].ID == id {
			f.players = append(f.players[:i], f.players[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
}

type fakeMatchStore struct {
	mu      sync.Mutex
	matches []domain.Match
	nextID  int64
}

func (f *fakeMatchStore) Insert(_ context.Context, m *domain.Match) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	stored := *m
	stored.ID = f.nextID
	f.matches = append(f.matches, stored)
	return stored.ID, nil
}

func (f *fakeMatchStore) List(context.Context) ([]domain.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Match, len(f.matches))
	copy(out, f.matches)
	return out, nil
}

type fakeSnapshotStore struct {
	mu      sync.Mutex
	players []domain.Player
	matches []domain.Match
	calls   int
}

func (f *fakeSnapshotStore) ReplaceAll(_ context.Context, players []domain.Player, matches []domain.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.players = players
	f.matches = matches
	return nil
}
