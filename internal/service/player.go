package service

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
)

type PlayerService struct {
	repo   PlayerStore
	logger zerolog.Logger
}

func NewPlayerService(repo PlayerStore, logger zerolog.Logger) *PlayerService {
	return &PlayerService{repo: repo, logger: logger}
}

// RatingInput carries the five skill attributes of a registration or edit.
type RatingInput struct {
	Name     string
	Reflexes int
	Setting  int
	Defense  int
	Spike    int
	GameIQ   int
	IsIcon   bool
}

func (in RatingInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: player name is required", domain.ErrInvalidSelection)
	}
	for _, v := range []int{in.Reflexes, in.Setting, in.Defense, in.Spike, in.GameIQ} {
		if v < constants.AttributeMin || v > constants.AttributeMax {
			return fmt.Errorf("%w: attribute %d out of range [%d, %d]", domain.ErrInvalidSelection, v, constants.AttributeMin, constants.AttributeMax)
		}
	}
	return nil
}

// Register creates a player with a freshly seeded history entry. New players
// start available.
func (s *PlayerService) Register(ctx context.Context, in RatingInput) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := in.validate(); err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate player id: %w", err)
	}
	snapshotID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot id: %w", err)
	}

	now := time.Now()
	player := domain.Player{
		ID:        id,
		Name:      in.Name,
		Reflexes:  in.Reflexes,
		Setting:   in.Setting,
		Defense:   in.Defense,
		Spike:     in.Spike,
		GameIQ:    in.GameIQ,
		Available: true,
		IsIcon:    in.IsIcon,
		CreatedAt: now,
		UpdatedAt: now,
	}
	player.Average = player.ComputeAverage()
	player.History = []domain.RatingSnapshot{
		player.Snapshot(snapshotID, domain.DayOf(now), domain.ReasonInitialRating),
	}

	if err := s.repo.Create(ctx, &player); err != nil {
		s.logger.Error().Err(err).Str("name", in.Name).Msg("failed to create player")
		return nil, err
	}

	s.logger.Info().
		Str("player_id", player.ID).
		Str("name", player.Name).
		Float64("average", player.Average).
		Msg("player registered")
	return &player, nil
}

// Update rewrites the player's attributes, recomputes the average, and
// appends a history entry only when the rating actually changed.
func (s *PlayerService) Update(ctx context.Context, id string, in RatingInput) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := in.validate(); err != nil {
		return nil, err
	}

	player, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	player.Name = in.Name
	player.Reflexes = in.Reflexes
	player.Setting = in.Setting
	player.Defense = in.Defense
	player.Spike = in.Spike
	player.GameIQ = in.GameIQ
	player.IsIcon = in.IsIcon
	player.Average = player.ComputeAverage()
	player.UpdatedAt = time.Now()

	var appended []domain.RatingSnapshot
	if ratingChanged(*player) {
		snapshotID, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("failed to generate snapshot id: %w", err)
		}
		entry := player.Snapshot(snapshotID, domain.DayOf(player.UpdatedAt), domain.ReasonStatsUpdated)
		player.History = append(player.History, entry)
		appended = []domain.RatingSnapshot{entry}
	}

	if err := s.repo.Update(ctx, player, appended); err != nil {
		s.logger.Error().Err(err).Str("player_id", id).Msg("failed to update player")
		return nil, err
	}

	s.logger.Info().
		Str("player_id", id).
		Bool("rating_changed", len(appended) > 0).
		Float64("average", player.Average).
		Msg("player updated")
	return player, nil
}

// ratingChanged compares the player's current attributes against the latest
// history entry; availability and name edits never count as rating changes.
func ratingChanged(p domain.Player) bool {
	if len(p.History) == 0 {
		return true
	}
	return !p.History[len(p.History)-1].SameRating(p)
}

// ToggleAvailability flips the player's availability flag and returns the
// new value.
func (s *PlayerService) ToggleAvailability(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	player, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}

	available := !player.Available
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		return false, err
	}

	s.logger.Debug().Str("player_id", id).Bool("available", available).Msg("availability toggled")
	return available, nil
}

func (s *PlayerService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.repo.Delete(ctx, id)
}

func (s *PlayerService) List(ctx context.Context) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.repo.List(ctx)
}

func (s *PlayerService) Get(ctx context.Context, id string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.repo.Get(ctx, id)
}
