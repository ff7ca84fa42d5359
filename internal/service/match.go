package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/draft"
)

type MatchService struct {
	players PlayerStore
	matches MatchStore
	src     draft.Source
	logger  zerolog.Logger
}

func NewMatchService(players PlayerStore, matches MatchStore, src draft.Source, logger zerolog.Logger) *MatchService {
	return &MatchService{players: players, matches: matches, src: src, logger: logger}
}

// GenerateTeams drafts the currently available roster into numTeams balanced
// teams. The shortfall error carries available vs required counts for the
// caller to surface.
func (s *MatchService) GenerateTeams(ctx context.Context, numTeams int) (domain.TeamPartition, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	all, err := s.players.List(ctx)
	if err != nil {
		return domain.TeamPartition{}, err
	}

	available := make([]domain.Player, 0, len(all))
	for _, p := range all {
		if p.Available {
			available = append(available, p)
		}
	}

	partition, err := draft.Balance(available, numTeams, s.src)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("num_teams", numTeams).
			Int("available", len(available)).
			Msg("draft failed")
		return domain.TeamPartition{}, err
	}

	s.logger.Info().
		Int("num_teams", numTeams).
		Int("players", len(available)).
		Float64("spread", partition.Spread).
		Msg("teams generated")
	return partition, nil
}

// RecordMatch records a two-team outcome: winners first, losers second.
func (s *MatchService) RecordMatch(ctx context.Context, winners, losers []domain.Player, notes string) (*domain.Match, error) {
	if len(winners) == 0 || len(losers) == 0 {
		return nil, fmt.Errorf("%w: both teams must have at least one player", domain.ErrInvalidSelection)
	}
	return s.RecordMatchGeneric(ctx, [][]domain.Player{winners, losers}, 0, notes)
}

// RecordMatchGeneric records an N-team outcome; every non-winning team is
// marked as a loss. Validation happens before any mutation and each team's
// average is snapshotted from the members' current ratings.
func (s *MatchService) RecordMatchGeneric(ctx context.Context, teams [][]domain.Player, winnerIdx int, notes string) (*domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 teams, got %d", domain.ErrInvalidSelection, len(teams))
	}
	if winnerIdx < 0 || winnerIdx >= len(teams) {
		return nil, fmt.Errorf("%w: winning team %d out of range", domain.ErrInvalidSelection, winnerIdx)
	}
	seen := make(map[string]struct{})
	for i, team := range teams {
		if len(team) == 0 {
			return nil, fmt.Errorf("%w: team %d is empty", domain.ErrInvalidSelection, i)
		}
		for _, p := range team {
			if _, dup := seen[p.ID]; dup {
				return nil, fmt.Errorf("%w: player %s appears in more than one team", domain.ErrInvalidSelection, p.ID)
			}
			seen[p.ID] = struct{}{}
		}
	}

	now := time.Now()
	match := domain.Match{
		Date:      domain.DayOf(now),
		Notes:     notes,
		CreatedAt: now,
	}
	for i, team := range teams {
		result := domain.ResultLoss
		if i == winnerIdx {
			result = domain.ResultWin
		}
		entry := domain.MatchTeam{
			PlayerIDs: make([]string, 0, len(team)),
			Average:   draft.TeamAverage(team),
			Result:    result,
		}
		for _, p := range team {
			entry.PlayerIDs = append(entry.PlayerIDs, p.ID)
		}
		match.Teams = append(match.Teams, entry)
	}

	id, err := s.matches.Insert(ctx, &match)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to record match")
		return nil, err
	}
	match.ID = id

	return &match, nil
}

// RecordPartitionResult records the outcome of a drafted partition by team
// index: only the two teams that actually played enter the match record.
func (s *MatchService) RecordPartitionResult(ctx context.Context, partition domain.TeamPartition, winnerIdx, loserIdx int, notes string) (*domain.Match, error) {
	n := len(partition.Teams)
	if winnerIdx < 0 || winnerIdx >= n {
		return nil, fmt.Errorf("%w: winning team %d out of range", domain.ErrInvalidSelection, winnerIdx)
	}
	if loserIdx < 0 || loserIdx >= n {
		return nil, fmt.Errorf("%w: losing team %d out of range", domain.ErrInvalidSelection, loserIdx)
	}
	if winnerIdx == loserIdx {
		return nil, fmt.Errorf("%w: winning and losing team cannot be the same", domain.ErrInvalidSelection)
	}
	return s.RecordMatch(ctx, partition.Teams[winnerIdx], partition.Teams[loserIdx], notes)
}

// ResolvePlayers maps ids to current roster entries, for recording paths
// that arrive over the API with ids only.
func (s *MatchService) ResolvePlayers(ctx context.Context, ids []string) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	players := make([]domain.Player, 0, len(ids))
	for _, id := range ids {
		p, err := s.players.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, nil
}

func (s *MatchService) ListMatches(ctx context.Context) ([]domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.matches.List(ctx)
}
