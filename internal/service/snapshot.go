package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/snapshot"
)

type SnapshotService struct {
	players   PlayerStore
	matches   MatchStore
	snapshots SnapshotStore
	logger    zerolog.Logger
}

func NewSnapshotService(players PlayerStore, matches MatchStore, snapshots SnapshotStore, logger zerolog.Logger) *SnapshotService {
	return &SnapshotService{players: players, matches: matches, snapshots: snapshots, logger: logger}
}

// Export captures the full dataset as a payload stamped with the export time.
func (s *SnapshotService) Export(ctx context.Context) (*snapshot.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

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
		s.logger.Error().Err(err).Msg("failed to export dataset")
		return nil, err
	}

	s.logger.Info().
		Int("players", len(players)).
		Int("matches", len(matches)).
		Msg("dataset exported")
	return snapshot.FromDomain(players, matches, time.Now()), nil
}

// Import validates the payload and destructively replaces the local dataset.
// The replace runs in one transaction, so a failure leaves the previous
// dataset intact.
func (s *SnapshotService) Import(ctx context.Context, payload *snapshot.Payload) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	players, matches, err := payload.ToDomain(time.Now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("rejected snapshot import")
		return 0, 0, err
	}

	if err := s.snapshots.ReplaceAll(ctx, players, matches); err != nil {
		s.logger.Error().Err(err).Msg("failed to import snapshot")
		return 0, 0, err
	}

	return len(players), len(matches), nil
}
