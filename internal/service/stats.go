package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/stats"
)

type StatsService struct {
	players PlayerStore
	matches MatchStore
	logger  zerolog.Logger
}

func NewStatsService(players PlayerStore, matches MatchStore, logger zerolog.Logger) *StatsService {
	return &StatsService{players: players, matches: matches, logger: logger}
}

// Leaderboard loads a fresh snapshot of the roster and match log and ranks
// players within the requested window.
func (s *StatsService) Leaderboard(ctx context.Context, filter domain.TimeFilter, sortBy domain.SortKey) ([]domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	players, matches, err := s.loadDataset(ctx)
	if err != nil {
		return nil, err
	}

	entries := stats.Leaderboard(matches, players, filter, sortBy, time.Now(), s.logger)

	s.logger.Debug().
		Str("filter", string(filter)).
		Str("sort", string(sortBy)).
		Int("entries", len(entries)).
		Msg("leaderboard computed")
	return entries, nil
}

// PlayerRecord aggregates one player's wins and losses within the window.
func (s *StatsService) PlayerRecord(ctx context.Context, playerID string, filter domain.TimeFilter) (stats.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if _, err := s.players.Get(ctx, playerID); err != nil {
		return stats.PlayerStats{}, err
	}

	matches, err := s.matches.List(ctx)
	if err != nil {
		return stats.PlayerStats{}, err
	}

	windowed := stats.FilterMatches(matches, filter, time.Now())
	return stats.Aggregate(windowed, playerID), nil
}

func (s *StatsService) loadDataset(ctx context.Context) ([]domain.Player, []domain.Match, error) {
	g, gCtx := errgroup.WithContext(ctx)
	var players []domain.Player
	var matches []domain.Match

	g.Go(func() error {
		var err error
		players, err = s.players.List(gCtx)
		return err
	})

	g.Go(func() error {
		var err error
		matches, err = s.matches.List(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to load dataset")
		return nil, nil, err
	}
	return players, matches, nil
}
